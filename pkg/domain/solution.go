package domain

// TokenLength is the length of a solution token: the first 12 hex characters
// of the SHA-1 digest of the uploaded image.
const TokenLength = 12

// Solution describes a solved image: the token under which its rendered
// pages are stored and how many pages were produced.
type Solution struct {
	// Token identifies the stored page set. It is derived from the image
	// content, so re-uploading the same image yields the same token.
	Token string `json:"token"`
	// Pages is the number of 200x200 bitmap pages the solution rendered to.
	// It is always at least 1.
	Pages int `json:"pages"`
}
