package constants

const (
	APP_NAME   = "Inkwell"
	PUBLIC_URL = "http://localhost:6835"

	// layout used for the human readable creation date stored on posts
	POST_DATE_LAYOUT = "January 02, 2006"

	MIN_PASSWORD_LENGTH = 8

	// repeated in the forms validate tags
	MAX_COMMENT_LENGTH = 5500
	MAX_TITLE_LENGTH   = 250
)
