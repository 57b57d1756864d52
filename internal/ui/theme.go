package ui

import "charm.land/lipgloss/v2"

// StyleVariants lists the accepted --style values; the first is the default.
var StyleVariants = []string{"midnight", "chalkboard", "terminal"}

type Theme struct {
	Header       lipgloss.Style
	Nav          lipgloss.Style
	NavKey       lipgloss.Style
	NavLocked    lipgloss.Style
	Welcome      lipgloss.Style
	Status       lipgloss.Style
	PanelTitle   lipgloss.Style
	PanelBorder  lipgloss.Style
	PanelBody    lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Pass         lipgloss.Style
	Fail         lipgloss.Style
	Pending      lipgloss.Style
	Muted        lipgloss.Style
	Info         lipgloss.Style
	ToastOK      lipgloss.Style
	ToastErr     lipgloss.Style
	UserBubble   lipgloss.Style
	BotBubble    lipgloss.Style
	Selected     lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeForVariant(StyleVariants[0])
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "chalkboard":
		return chalkboardTheme()
	case "terminal":
		return terminalTheme()
	default:
		return midnightTheme()
	}
}

func midnightTheme() Theme {
	amber := lipgloss.Color("#FFC857")
	mint := lipgloss.Color("#67F0A8")
	brick := lipgloss.Color("#FF6F91")
	ink := lipgloss.Color("#0E1420")
	slate := lipgloss.Color("#1B2740")
	powder := lipgloss.Color("#EAF2FF")
	blue := lipgloss.Color("#5EEBFF")
	border := lipgloss.Color("#4B5F8A")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(ink).
			Foreground(powder).
			Padding(0, 1),
		Nav:       lipgloss.NewStyle().Foreground(powder),
		NavKey:    lipgloss.NewStyle().Foreground(blue).Bold(true),
		NavLocked: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7A99")),
		Welcome:   lipgloss.NewStyle().Foreground(amber).Bold(true),
		Status: lipgloss.NewStyle().
			Background(slate).
			Foreground(powder).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),
		PanelBorder: lipgloss.NewStyle().
			Foreground(border),
		PanelBody: lipgloss.NewStyle().
			Foreground(powder),
		OverlayTitle: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),
		Accent:   lipgloss.NewStyle().Foreground(blue).Bold(true),
		Pass:     lipgloss.NewStyle().Foreground(mint).Bold(true),
		Fail:     lipgloss.NewStyle().Foreground(brick).Bold(true),
		Pending:  lipgloss.NewStyle().Foreground(amber),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9CAAC6")),
		Info:     lipgloss.NewStyle().Foreground(blue),
		ToastOK:  lipgloss.NewStyle().Background(lipgloss.Color("#1F6B45")).Foreground(powder).Bold(true).Padding(0, 1),
		ToastErr: lipgloss.NewStyle().Background(lipgloss.Color("#8C2340")).Foreground(powder).Bold(true).Padding(0, 1),
		UserBubble: lipgloss.NewStyle().
			Foreground(ink).
			Background(blue).
			Padding(0, 1),
		BotBubble: lipgloss.NewStyle().
			Foreground(powder).
			Background(slate).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().Foreground(amber).Bold(true),
	}
}

func chalkboardTheme() Theme {
	honey := lipgloss.Color("#F2B872")
	sage := lipgloss.Color("#80C4A3")
	rose := lipgloss.Color("#D17A86")
	night := lipgloss.Color("#1E2430")
	slate := lipgloss.Color("#30394A")
	paper := lipgloss.Color("#F4F6FA")
	sky := lipgloss.Color("#86B6F6")

	return Theme{
		Header:       lipgloss.NewStyle().Background(night).Foreground(paper).Padding(0, 1),
		Nav:          lipgloss.NewStyle().Foreground(paper),
		NavKey:       lipgloss.NewStyle().Foreground(honey).Bold(true),
		NavLocked:    lipgloss.NewStyle().Foreground(lipgloss.Color("#707A8F")),
		Welcome:      lipgloss.NewStyle().Foreground(sky).Bold(true),
		Status:       lipgloss.NewStyle().Background(slate).Foreground(paper).Padding(0, 1),
		PanelTitle:   lipgloss.NewStyle().Foreground(honey).Bold(true),
		PanelBorder:  lipgloss.NewStyle().Foreground(slate),
		PanelBody:    lipgloss.NewStyle().Foreground(paper),
		OverlayTitle: lipgloss.NewStyle().Foreground(honey).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(sky).Bold(true),
		Pass:         lipgloss.NewStyle().Foreground(sage).Bold(true),
		Fail:         lipgloss.NewStyle().Foreground(rose).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(honey),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#A3ACC2")),
		Info:         lipgloss.NewStyle().Foreground(sky),
		ToastOK:      lipgloss.NewStyle().Background(sage).Foreground(night).Bold(true).Padding(0, 1),
		ToastErr:     lipgloss.NewStyle().Background(rose).Foreground(night).Bold(true).Padding(0, 1),
		UserBubble:   lipgloss.NewStyle().Foreground(night).Background(sky).Padding(0, 1),
		BotBubble:    lipgloss.NewStyle().Foreground(paper).Background(slate).Padding(0, 1),
		Selected:     lipgloss.NewStyle().Foreground(honey).Bold(true),
	}
}

func terminalTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#12301A")
	glow := lipgloss.Color("#C5F7C4")

	return Theme{
		Header:       lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Nav:          lipgloss.NewStyle().Foreground(glow),
		NavKey:       lipgloss.NewStyle().Foreground(amber).Bold(true),
		NavLocked:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4E7A55")),
		Welcome:      lipgloss.NewStyle().Foreground(lime).Bold(true),
		Status:       lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		PanelTitle:   lipgloss.NewStyle().Foreground(amber).Bold(true),
		PanelBorder:  lipgloss.NewStyle().Foreground(lipgloss.Color("#1F5C2F")),
		PanelBody:    lipgloss.NewStyle().Foreground(glow),
		OverlayTitle: lipgloss.NewStyle().Foreground(amber).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(lime).Bold(true),
		Pass:         lipgloss.NewStyle().Foreground(lime).Bold(true),
		Fail:         lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(amber),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),
		Info:         lipgloss.NewStyle().Foreground(lime),
		ToastOK:      lipgloss.NewStyle().Background(forest).Foreground(lime).Bold(true).Padding(0, 1),
		ToastErr:     lipgloss.NewStyle().Background(red).Foreground(deep).Bold(true).Padding(0, 1),
		UserBubble:   lipgloss.NewStyle().Foreground(deep).Background(lime).Padding(0, 1),
		BotBubble:    lipgloss.NewStyle().Foreground(glow).Background(forest).Padding(0, 1),
		Selected:     lipgloss.NewStyle().Foreground(amber).Bold(true),
	}
}
