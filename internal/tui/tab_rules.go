package tui

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/screenrole/internal/config"
	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/roles"
)

// ruleItem is a list item for one entry of the role table.
type ruleItem struct {
	index int
	rule  config.RuleConfig
}

func (i ruleItem) role() string {
	r, err := roles.ParseRole(i.rule.Role, i.rule.Offset)
	if err != nil {
		return "invalid"
	}
	return r.String()
}

func (i ruleItem) Title() string {
	return fmt.Sprintf("%d. %s → %s", i.index+1, i.rule.Match, i.role())
}

func (i ruleItem) Description() string {
	if i.rule.Offset > 0 {
		return fmt.Sprintf("role: %s, offset: %d", i.rule.Role, i.rule.Offset)
	}
	return "role: " + i.rule.Role
}

func (i ruleItem) FilterValue() string { return i.rule.Match }

// parseRuleInput reads "MATCH ROLE [OFFSET]".
func parseRuleInput(s string) (config.RuleConfig, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 3 {
		return config.RuleConfig{}, fmt.Errorf("want: MATCH ROLE [OFFSET]")
	}
	rc := config.RuleConfig{Match: fields[0], Role: strings.ToLower(fields[1])}
	if _, err := path.Match(rc.Match, ""); err != nil {
		return config.RuleConfig{}, fmt.Errorf("invalid pattern %q", rc.Match)
	}
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return config.RuleConfig{}, fmt.Errorf("offset %q is not a number", fields[2])
		}
		rc.Offset = n
	}
	if _, err := roles.ParseRole(rc.Role, rc.Offset); err != nil {
		return config.RuleConfig{}, err
	}
	return rc, nil
}

// RulesTab edits the ordered screen role table.
type RulesTab struct {
	list     list.Model
	cfg      *config.Config
	displays []display.DisplayStatus
	width    int
	height   int

	adding    bool
	textInput textinput.Model
	err       error
}

// NewRulesTab creates a RulesTab over the shared config.
func NewRulesTab(cfg *config.Config) RulesTab {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(buildRuleItems(cfg), delegate, 0, 0)
	l.Title = "Screen Rules (first match wins)"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "e.g. HDMI-* previous 2"
	ti.CharLimit = 96

	return RulesTab{list: l, cfg: cfg, textInput: ti}
}

// SetDisplays records the live displays shown in the detail pane.
func (t *RulesTab) SetDisplays(ds []display.DisplayStatus) {
	t.displays = ds
}

func buildRuleItems(cfg *config.Config) []list.Item {
	if cfg == nil {
		return nil
	}
	items := make([]list.Item, 0, len(cfg.Screens.Rules))
	for i, rc := range cfg.Screens.Rules {
		items = append(items, ruleItem{index: i, rule: rc})
	}
	return items
}

func (t *RulesTab) rebuild(selected int) {
	t.list.SetItems(buildRuleItems(t.cfg))
	if selected >= 0 && selected < len(t.list.Items()) {
		t.list.Select(selected)
	}
}

// Update handles messages for the rules tab.
func (t RulesTab) Update(msg tea.Msg) (RulesTab, tea.Cmd) {
	if t.adding {
		return t.updateAdding(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		t.list.SetSize(t.listWidth(), t.height)
		return t, nil

	case tea.KeyMsg:
		idx := t.list.Index()
		switch msg.String() {
		case "a":
			t.adding = true
			t.err = nil
			t.textInput.Reset()
			t.textInput.Focus()
			return t, textinput.Blink
		case "x", "delete":
			if t.removeRule(idx) {
				t.rebuild(min(idx, len(t.cfg.Screens.Rules)-1))
			}
			return t, nil
		case "K", "shift+up":
			if t.moveRule(idx, -1) {
				t.rebuild(idx - 1)
			}
			return t, nil
		case "J", "shift+down":
			if t.moveRule(idx, 1) {
				t.rebuild(idx + 1)
			}
			return t, nil
		}
	}

	var cmd tea.Cmd
	t.list, cmd = t.list.Update(msg)
	return t, cmd
}

func (t RulesTab) updateAdding(msg tea.Msg) (RulesTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			rc, err := parseRuleInput(t.textInput.Value())
			if err != nil {
				t.err = err
				return t, nil
			}
			if t.cfg != nil {
				t.cfg.Screens.Rules = append(t.cfg.Screens.Rules, rc)
				t.rebuild(len(t.cfg.Screens.Rules) - 1)
			}
			t.adding = false
			t.err = nil
			t.textInput.Blur()
			return t, nil
		case "esc":
			t.adding = false
			t.err = nil
			t.textInput.Blur()
			return t, nil
		}
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		return t, nil
	}

	var cmd tea.Cmd
	t.textInput, cmd = t.textInput.Update(msg)
	return t, cmd
}

func (t *RulesTab) removeRule(i int) bool {
	if t.cfg == nil || i < 0 || i >= len(t.cfg.Screens.Rules) {
		return false
	}
	t.cfg.Screens.Rules = append(t.cfg.Screens.Rules[:i], t.cfg.Screens.Rules[i+1:]...)
	return true
}

func (t *RulesTab) moveRule(i, delta int) bool {
	if t.cfg == nil {
		return false
	}
	j := i + delta
	rules := t.cfg.Screens.Rules
	if i < 0 || i >= len(rules) || j < 0 || j >= len(rules) {
		return false
	}
	rules[i], rules[j] = rules[j], rules[i]
	return true
}

func (t RulesTab) listWidth() int {
	w := t.width * 2 / 5
	if w < 24 {
		w = 24
	}
	return w
}

// View implements tea.Model.
func (t RulesTab) View() string {
	if t.width == 0 || t.height == 0 {
		return ""
	}

	leftWidth := t.listWidth()
	rightWidth := t.width - leftWidth
	if rightWidth < 10 {
		rightWidth = 10
	}

	leftContent := t.list.View()
	if t.adding {
		prompt := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render("Add rule (MATCH ROLE [OFFSET]):") + "\n" +
			t.textInput.View() + "\n"
		if t.err != nil {
			prompt += errStyle.Render(t.err.Error()) + "\n"
		}
		prompt += dimStyle.Render("enter: confirm  esc: cancel")
		inputBlock := lipgloss.NewStyle().Padding(0, 1).Width(leftWidth).Render(prompt)
		listHeight := t.height - lipgloss.Height(inputBlock)
		if listHeight < 1 {
			listHeight = 1
		}
		t.list.SetSize(leftWidth, listHeight)
		leftContent = inputBlock + "\n" + t.list.View()
	}

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(t.height).
		Render(leftContent)

	var right string
	if item, ok := t.list.SelectedItem().(ruleItem); ok {
		right = renderRuleDetail(item, t.displays, rightWidth, t.height)
	} else {
		right = lipgloss.NewStyle().
			Width(rightWidth).
			Height(t.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No rules: every display falls back to the presentation role\n\na: add rule")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// matchingDisplays lists the live display names a rule pattern matches.
func matchingDisplays(rule config.RuleConfig, displays []display.DisplayStatus) []string {
	var out []string
	for _, d := range displays {
		if ok, _ := path.Match(rule.Match, d.Name); ok {
			out = append(out, d.Name)
		}
	}
	return out
}

func renderRuleDetail(item ruleItem, displays []display.DisplayStatus, width, height int) string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	b.WriteString(titleStyle.Render(item.rule.Match))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("248")).Width(18)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	field("position:", strconv.Itoa(item.index+1))
	field("role:", item.role())
	if matches := matchingDisplays(item.rule, displays); len(matches) > 0 {
		field("matches:", strings.Join(matches, ", "))
	} else if len(displays) > 0 {
		field("matches:", "(no live display)")
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	b.WriteString(helpStyle.Render("a: add  x: remove  K/J: move up/down"))

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(lipgloss.Color("236")).
		Render(b.String())
}
