package models

// ChatQuery is a single free-text question from a user.
type ChatQuery struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

// Attachment is structured data returned alongside a chat answer.
// At most one of the two lists is set.
type Attachment struct {
	StockData []Bar         `json:"stock_data,omitempty"`
	IndexInfo []IndexRecord `json:"index_info,omitempty"`
}

// Kind names the payload carried by the attachment.
func (a *Attachment) Kind() string {
	switch {
	case a == nil:
		return "none"
	case len(a.IndexInfo) > 0:
		return "index_info"
	case len(a.StockData) > 0:
		return "stock_data"
	default:
		return "none"
	}
}

// ChatAnswer is the result of routing a ChatQuery.
type ChatAnswer struct {
	Response string      `json:"response"`
	Data     *Attachment `json:"data"`
	Success  bool        `json:"success"`
	Error    string      `json:"error,omitempty"`
}
