// Package menu holds the static conversational content: navigation menus,
// canned replies and the standard error responses.
package menu

// Option is a selectable button in a chat response.
type Option struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Action string `json:"action"`
}

// Response is the payload returned for every chat turn.
type Response struct {
	Message        string   `json:"message"`
	Options        []Option `json:"options"`
	ExpectingInput bool     `json:"expectingInput,omitempty"`
}

// Opt builds an option whose id equals its action.
func Opt(action, text string) Option {
	return Option{ID: action, Text: text, Action: action}
}

// MainMenuOption navigates back to the main menu.
func MainMenuOption() Option {
	return Opt("main", "← Back to Main Menu")
}

// clone copies the options so callers can append without touching the table.
func (r Response) clone() Response {
	r.Options = append([]Option(nil), r.Options...)
	return r
}
