package render

import "github.com/gdamore/tcell/v2"

// ColorTheme defines application colors.
type ColorTheme struct {
	HeaderBg    tcell.Color
	HeaderFg    tcell.Color
	ListBg      tcell.Color
	ListFg      tcell.Color
	CursorBg    tcell.Color
	CursorFg    tcell.Color
	SelectedFg  tcell.Color
	DirectoryFg tcell.Color
	SymlinkFg   tcell.Color
	FileFg      tcell.Color
	HiddenFg    tcell.Color
	ErrorFg     tcell.Color
	PreviewFg   tcell.Color
	DimFg       tcell.Color
	StatusBg    tcell.Color
	StatusFg    tcell.Color
}

// GetColorTheme returns the default color scheme.
func GetColorTheme() ColorTheme {
	return ColorTheme{
		HeaderBg:    tcell.ColorDefault,
		HeaderFg:    tcell.ColorDefault,
		ListBg:      tcell.ColorDefault,
		ListFg:      tcell.ColorDefault,
		CursorBg:    tcell.Color33,
		CursorFg:    tcell.ColorWhite,
		SelectedFg:  tcell.ColorYellow,
		DirectoryFg: tcell.Color33,
		SymlinkFg:   tcell.Color51,
		FileFg:      tcell.ColorDefault,
		HiddenFg:    tcell.ColorLightSlateGray,
		ErrorFg:     tcell.ColorRed,
		PreviewFg:   tcell.ColorDefault,
		DimFg:       tcell.ColorDarkGray,
		StatusBg:    tcell.ColorDefault,
		StatusFg:    tcell.ColorDefault,
	}
}
