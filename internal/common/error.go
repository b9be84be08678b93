package common

import "fmt"

var (
	ErrCredentialsNotFound    = fmt.Errorf("credentials not found")
	ErrInvalidToken           = fmt.Errorf("invalid token")
	ErrUnknownProgressBackend = fmt.Errorf("unknown progress backend")
	ErrUnknownResetPolicy     = fmt.Errorf("unknown reset policy")
	ErrUnknownLogLevel        = fmt.Errorf("unknown log level")
	ErrSizeMismatch           = fmt.Errorf("size mismatch")
	ErrPageTokenLoop          = fmt.Errorf("page token repeated")
	ErrEmptyPage              = fmt.Errorf("lister returned no page")
	ErrInvalidName            = fmt.Errorf("invalid file name")
)
