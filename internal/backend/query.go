package backend

import "encoding/json"

// Query is a single list filter in the backend's JSON query syntax.
type Query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

func Equal(attribute string, values ...any) Query {
	return Query{Method: "equal", Attribute: attribute, Values: values}
}

func Limit(n int) Query {
	return Query{Method: "limit", Values: []any{n}}
}

func Offset(n int) Query {
	return Query{Method: "offset", Values: []any{n}}
}

func OrderDesc(attribute string) Query {
	return Query{Method: "orderDesc", Attribute: attribute}
}

func (q Query) String() string {
	b, err := json.Marshal(q)
	if err != nil {
		return ""
	}
	return string(b)
}
