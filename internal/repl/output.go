package repl

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	// promptStyle for the input prompt
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// echoStyle for expression result echoes
	echoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// errorStyle for error messages
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// infoStyle for informational notices
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// headerBoxStyle for the session banner
	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("81")).
			Padding(0, 1)
)

// FormatBanner renders the session header with the undo token hint.
func FormatBanner(w io.Writer, undoToken string) {
	content := fmt.Sprintf("%s\n%s %s  %s ctrl-d",
		promptStyle.Render("rewind"),
		dimStyle.Render("undo:"), undoToken,
		dimStyle.Render("quit:"),
	)
	fmt.Fprintln(w, headerBoxStyle.Render(content))
}

// FormatPrompt writes the input prompt without a trailing newline.
func FormatPrompt(w io.Writer, prompt string) {
	fmt.Fprint(w, promptStyle.Render(prompt))
}

// FormatEcho writes the value of the last expression.
func FormatEcho(w io.Writer, echo string) {
	fmt.Fprintf(w, "%s %s\n", dimStyle.Render("=>"), echoStyle.Render(echo))
}

// FormatTruncated notes that captured output was cut.
func FormatTruncated(w io.Writer) {
	fmt.Fprintln(w, dimStyle.Render("(output truncated)"))
}

// FormatError writes an error message.
func FormatError(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("error:"), msg)
}

// FormatInfo writes an informational notice.
func FormatInfo(w io.Writer, msg string) {
	fmt.Fprintln(w, infoStyle.Render(msg))
}

// FormatUndo notes a completed rollback.
func FormatUndo(w io.Writer, generation int) {
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("reverted to generation %d", generation)))
}
