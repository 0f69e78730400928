// Package preference stores per-user key/value preferences such as the email confirmation flag.
package preference

const (
	// EmailConfirmed holds "0" until the user follows the confirmation link, then "1".
	EmailConfirmed = "auth_psup_emailconfirmed"
	// WantsURL holds the page to return to after confirmation. Consumed once.
	WantsURL = "auth_psup_wantsurl"
)

// Confirmation flag values.
const (
	Unconfirmed = "0"
	Confirmed   = "1"
)
