package authservice

import (
	"log/slog"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

// AuthService signs users up and manages their sessions. Credentials never
// touch this process beyond being forwarded to the backend.
type AuthService struct {
	accounts backend.Accounts
	mb       common.MessageProducer
	logger   *slog.Logger
}
