package preferences

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"focus/internal/core/model"
)

// Window handles the preferences UI.
type Window struct {
	window   fyne.Window
	onSave   func(model.Config) error
	focus    *widget.Entry
	free     *widget.Entry
	rest     *widget.Entry
	feedback *widget.Label
}

// New creates a preferences window. onSave receives the parsed durations;
// an error it returns is shown and keeps the window open.
func New(app fyne.App, config model.Config, onSave func(model.Config) error) *Window {
	window := app.NewWindow("Focus Settings")

	prefs := &Window{
		window:   window,
		onSave:   onSave,
		focus:    widget.NewEntry(),
		free:     widget.NewEntry(),
		rest:     widget.NewEntry(),
		feedback: widget.NewLabel(""),
	}
	prefs.feedback.Wrapping = fyne.TextWrapWord
	prefs.Update(config)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Durations", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Focus for"), prefs.focus, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Earn free time"), prefs.free, widget.NewLabel("min per focus")),
		container.NewHBox(widget.NewLabel("Rest for"), prefs.rest, widget.NewLabel("min")),
		widget.NewLabel("Changes apply from the next phase."),
		prefs.feedback,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", window.Hide)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(360, 260))
	window.SetCloseIntercept(window.Hide)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// Update replaces the field values.
func (prefs *Window) Update(config model.Config) {
	fields := FieldsFrom(config)
	prefs.focus.SetText(fields.FocusTime)
	prefs.free.SetText(fields.FreeTime)
	prefs.rest.SetText(fields.RestTime)
	prefs.feedback.SetText("")
}

func (prefs *Window) handleSave() {
	config, err := Fields{
		FocusTime: prefs.focus.Text,
		FreeTime:  prefs.free.Text,
		RestTime:  prefs.rest.Text,
	}.Parse()
	if err == nil && prefs.onSave != nil {
		err = prefs.onSave(config)
	}
	if err != nil {
		prefs.feedback.SetText(err.Error())
		return
	}
	prefs.feedback.SetText("")
	prefs.window.Hide()
}
