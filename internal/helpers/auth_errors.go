package helpers

import "strings"

var authMessages = []struct {
	needles []string
	message string
}{
	{[]string{"invalid_credentials", "invalid login credentials", "auth/wrong-password"}, "Incorrect password"},
	{[]string{"user_not_found", "auth/user-not-found"}, "No account found with this email"},
	{[]string{"user_already_exists", "email_exists", "user already registered", "auth/email-already-in-use"}, "Email already in use"},
	{[]string{"weak_password", "auth/weak-password", "password should be"}, "Password is too weak"},
	{[]string{"email_not_confirmed", "email not confirmed"}, "Please verify your email before signing in"},
	{[]string{"over_email_send_rate_limit", "over_request_rate_limit", "rate limit", "auth/too-many-requests"}, "Too many attempts, please try again later"},
	{[]string{"validation_failed", "auth/invalid-email", "unable to validate email"}, "Invalid email address"},
	{[]string{"session_not_found", "refresh_token_not_found", "invalid refresh token"}, "Session expired, please sign in again"},
	{[]string{"reauthentication_needed", "reauth_nonce_missing"}, "Please confirm it is you before continuing"},
}

// MapAuthError turns an identity provider error into a message that can be
// shown to the user as is.
func MapAuthError(raw string) string {
	lower := strings.ToLower(raw)
	for _, m := range authMessages {
		for _, n := range m.needles {
			if strings.Contains(lower, n) {
				return m.message
			}
		}
	}
	return "Authentication failed, please try again"
}
