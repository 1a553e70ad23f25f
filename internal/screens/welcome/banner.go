package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/ui/theme"
)

const bannerArt = `
  ██████╗██╗      ██████╗ ██╗   ██╗██████╗ ██╗   ██╗███████╗██████╗ ███████╗███████╗
 ██╔════╝██║     ██╔═══██╗██║   ██║██╔══██╗██║   ██║██╔════╝██╔══██╗██╔════╝██╔════╝
 ██║     ██║     ██║   ██║██║   ██║██║  ██║██║   ██║█████╗  ██████╔╝███████╗█████╗
 ██║     ██║     ██║   ██║██║   ██║██║  ██║╚██╗ ██╔╝██╔══╝  ██╔══██╗╚════██║██╔══╝
 ╚██████╗███████╗╚██████╔╝╚██████╔╝██████╔╝ ╚████╔╝ ███████╗██║  ██║███████║███████╗
  ╚═════╝╚══════╝ ╚═════╝  ╚═════╝ ╚═════╝   ╚═══╝  ╚══════╝╚═╝  ╚═╝╚══════╝╚══════╝`

const bannerCompact = "C L O U D V E R S E"

// bannerWidth is the widest line of bannerArt.
const bannerWidth = 86

// RenderBanner returns the banner in the primary color, falling back to
// spaced letters when the terminal is narrower than the art.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
