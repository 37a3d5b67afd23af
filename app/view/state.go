package view

// State is the reader page owned by one running application: the feed
// display and the menu. It is passed explicitly to everything that reads or
// changes the page.
type State struct {
	Display *Display
	Menu    *Menu
}

func NewState() *State {
	return &State{
		Display: NewDisplay(),
		Menu:    NewMenu(),
	}
}
