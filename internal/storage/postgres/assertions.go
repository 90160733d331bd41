package postgres

import (
	"github.com/tinoosan/accounts/internal/service/account"
	"github.com/tinoosan/accounts/internal/service/user"
)

var (
	_ account.Repo   = (*Store)(nil)
	_ account.Writer = (*Store)(nil)
	_ user.Repo      = (*Store)(nil)
	_ user.Writer    = (*Store)(nil)
)
