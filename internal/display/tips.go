package display

import "math/rand"

// Tips is the pool the overlay picks its one-shot hint from.
var Tips = []string{
	"Press q or Esc to dismiss this window once the command finishes.",
	"Press ctrl+k to kill the running command.",
	"Use the arrow keys or pgup/pgdn to scroll the output.",
	"Set display: surface in .easky.yaml to keep output in a dedicated pane.",
	"Set strip_header: false to see the full Eask preamble.",
	"Run `easky run <verb>` to stream a command without the menu.",
	"Type / in a menu to filter subcommands.",
	"Global flags from global_flags are appended to every command.",
}

func pickTip(rng *rand.Rand) string {
	if len(Tips) == 0 {
		return ""
	}
	return Tips[rng.Intn(len(Tips))]
}
