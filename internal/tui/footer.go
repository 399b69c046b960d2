package tui

// renderFooter renders the key binding help at full terminal width.
// When app.showHelp is true, shows all key bindings; otherwise the short form.
func renderFooter(app *App, width int) string {
	app.help.Width = width
	app.help.ShowAll = app.showHelp
	return app.help.View(keys)
}
