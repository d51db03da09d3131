package download

// DownloadResult carries the content locations for an authorized access.
// At least one URL is non-nil; both absent is the not-configured error case
// handled before this is built.
type DownloadResult struct {
	ItemID      string  `json:"item_id"`
	ItemType    string  `json:"item_type"`
	Title       string  `json:"title"`
	DownloadURL *string `json:"download_url,omitempty"`
	SourceURL   *string `json:"source_url,omitempty"`
}
