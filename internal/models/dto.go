package models

// TextRequest is the body of comment and reply create/edit requests.
type TextRequest struct {
	Text string `json:"text"`
}

// LatestCommentsRequest is the optional body of the POST variant of the
// latest comments listing.
type LatestCommentsRequest struct {
	Limit int `json:"limit"`
}
