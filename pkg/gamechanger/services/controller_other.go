//go:build !windows

package services

// NewSystemController returns ErrUnsupportedPlatform outside Windows.
func NewSystemController() (Controller, error) {
	return nil, ErrUnsupportedPlatform
}
