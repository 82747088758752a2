package youtube

// commentThreadsResponse mirrors the YouTube Data API v3 commentThreads.list
// response, limited to the fields this service reads.
type commentThreadsResponse struct {
	NextPageToken string          `json:"nextPageToken"`
	Items         []commentThread `json:"items"`
}

type commentThread struct {
	ID      string        `json:"id"`
	Snippet threadSnippet `json:"snippet"`
}

type threadSnippet struct {
	TopLevelComment topLevelComment `json:"topLevelComment"`
}

type topLevelComment struct {
	Snippet commentSnippet `json:"snippet"`
}

type commentSnippet struct {
	TextDisplay       string `json:"textDisplay"`
	AuthorDisplayName string `json:"authorDisplayName"`
	LikeCount         int    `json:"likeCount"`
	PublishedAt       string `json:"publishedAt"`
}

// apiError is the Google API error envelope. The nested reason is what
// distinguishes an exhausted quota from a rejected key.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func (e *apiError) reason() string {
	if len(e.Error.Errors) > 0 {
		return e.Error.Errors[0].Reason
	}
	return ""
}
