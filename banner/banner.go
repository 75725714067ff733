package banner

import (
	"fmt"

	"github.com/fatih/color"
)

const version = "v0.0.7"

const art = `
    ____               _         ____
   / __/____ _ _   __ (_)____   / __/____
  / /_ / __  /| | / // // __ \ / /_ / __ \
 / __// /_/ / | |/ // // / / // __// /_/ /
/_/   \__,_/  |___//_//_/ /_//_/   \____/
`

var bannerColor = color.New(color.FgCyan)

func PrintBanner() {
	bannerColor.Print(art + "\n")
	fmt.Printf("%50s\n\n", "Current favinfo version "+version)
}

func PrintVersion() {
	fmt.Printf("Current favinfo version %s\n", version)
}

func Version() string {
	return version
}
