package fs

// Drive is a mounted volume a user can browse into.
type Drive struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
