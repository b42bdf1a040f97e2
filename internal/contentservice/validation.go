package contentservice

import "github.com/sushihentaime/quillpost/internal/common"

// Document ids on the backend are at most 36 characters.
const maxSlugLength = 36

func validateSlug(v *common.Validator, slug string) {
	v.Check(slug != "", "slug", "must be provided")
	v.Check(v.CheckStringLength(slug, 0, maxSlugLength), "slug", "must not be more than 36 characters long")
}

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 0, 255), "title", "must not be more than 255 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
}

func validateStatus(v *common.Validator, status string) {
	v.Check(common.PermittedValue(status, StatusActive, StatusInactive), "status", "must be either active or inactive")
}

func validateUserID(v *common.Validator, userID string) {
	v.Check(userID != "", "user_id", "must be provided")
}
