package transfer

type ZaloArticleCover struct {
	CoverType string `json:"cover_type"`
	PhotoURL  string `json:"photo_url,omitempty"`
	VideoID   string `json:"video_id,omitempty"`
	Status    string `json:"status"`
}

type ZaloArticleBlock struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}

type ZaloArticleRequest struct {
	Type        string             `json:"type"`
	Title       string             `json:"title"`
	Author      string             `json:"author"`
	Cover       ZaloArticleCover   `json:"cover"`
	Description string             `json:"description"`
	Body        []ZaloArticleBlock `json:"body"`
	Status      string             `json:"status"`
	Comment     string             `json:"comment"`
}

// ZaloResponse is the OA envelope: Error is 0 on success.
type ZaloResponse struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
	Data    struct {
		Token string `json:"token"`
		ID    string `json:"id"`
	} `json:"data"`
}
