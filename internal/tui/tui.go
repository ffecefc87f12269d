// Package tui is the interactive view over app.Controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/app"
	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/route"
)

type Options struct {
	Input  io.Reader
	Output io.Writer
	// Remote is the endpoint shown in the footer. Empty means local only.
	Remote string
}

// changedMsg tells the model the controller state moved.
type changedMsg struct{}

// listItem adapts a todo to bubbles/list.Item
type listItem struct {
	todo    model.Todo
	pending bool
}

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Title }

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
)

type modelTUI struct {
	ctl    *app.Controller
	remote string

	list list.Model
	mode mode
	ti   textinput.Model // shared text input model (used for add & edit)
	err  string          // last validation error (shown briefly)

	// Undo support (single-level)
	undo *model.Todo

	width, height int
}

// Run starts the program on ctl and returns once the user quits or ctx is
// done. Remote changes arriving meanwhile re-render the list.
func Run(ctx context.Context, ctl *app.Controller, opt Options) error {
	m := newModel(ctl, opt)
	popts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opt.Input != nil {
		popts = append(popts, tea.WithInput(opt.Input))
	}
	if opt.Output != nil {
		popts = append(popts, tea.WithOutput(opt.Output))
	}
	p := tea.NewProgram(m, popts...)

	// Send blocks until Update is free, and notifications fire from inside it.
	unsubscribe := ctl.Subscribe(func() { go p.Send(changedMsg{}) })
	defer unsubscribe()
	ctl.Start()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func newModel(ctl *app.Controller, opt Options) modelTUI {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	// q is handled before the list sees it.
	l.KeyMap.Quit.SetEnabled(false)

	l.AdditionalShortHelpKeys = keys.short
	l.AdditionalFullHelpKeys = keys.full

	m := modelTUI{
		ctl:    ctl,
		remote: opt.Remote,
		list:   l,
		width:  80,
		height: 24,
	}
	m.list.SetSize(m.width-4, m.height-6)
	// set up text input for inline add/edit
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.CharLimit = 200
	m.refresh()
	return m
}

// refresh rebuilds the list from the controller, keeping the cursor where
// it was when the item is still there.
func (m *modelTUI) refresh() {
	st := m.ctl.State()
	shown := model.Filter(st.Visibility, st.Todos)
	items := make([]list.Item, 0, len(shown))
	for _, t := range shown {
		items = append(items, listItem{todo: t, pending: m.ctl.SyncState(t.ID) == app.Pending})
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	m.list.Title = header(st)
}

func header(st app.State) string {
	left := model.Remaining(st.Todos)
	frag := st.Fragment
	if frag == "" {
		frag = route.Fragment(st.Visibility)
	}
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d   %s  %s",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), len(st.Todos)-left,
		pendingStyle.Render("•"), left,
		accentStyle.Render("Total"), len(st.Todos),
		accentStyle.Render(frag),
		mutedStyle.Render(fmt.Sprintf("%d %s left", left, model.Pluralize(left))),
	)
}

func (m modelTUI) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it.todo, ok
}

// Update and View implement Bubble Tea's Model on modelTUI
func (m modelTUI) Init() tea.Cmd { return nil }

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.refresh()
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.width-4, m.height-6)
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeEdit:
			return m.updateEdit(msg)
		}
		if m.list.FilterState() != list.Filtering {
			if next, cmd, ok := m.updateList(msg); ok {
				return next, cmd
			}
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit):
		if _, ok := m.ctl.AddTodo(m.ctl.NewTodo()); !ok {
			m.err = "Title cannot be empty"
			return m, nil
		}
		m.closeInput()
		m.refresh()
		return m, nil
	case key.Matches(msg, keys.Cancel):
		m.ctl.SetNewTodo("")
		m.closeInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	m.ctl.SetNewTodo(m.ti.Value())
	return m, cmd
}

func (m modelTUI) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit):
		// A blank title removes the todo.
		m.ctl.DoneEdit()
		m.closeInput()
		m.refresh()
		return m, nil
	case key.Matches(msg, keys.Cancel):
		m.ctl.CancelEdit()
		m.closeInput()
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	m.ctl.UpdateEdit(m.ti.Value())
	return m, cmd
}

func (m *modelTUI) closeInput() {
	m.mode = modeList
	m.err = ""
	m.ti.SetValue("")
	m.ti.Blur()
}

// updateList handles the list-mode keys; ok is false for keys the list
// itself should see.
func (m modelTUI) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit, true
	case key.Matches(msg, keys.Toggle):
		if t, ok := m.selected(); ok {
			m.ctl.ToggleTodo(t.ID)
		}
	case key.Matches(msg, keys.Delete):
		if t, ok := m.selected(); ok {
			tmp := t
			m.undo = &tmp
			m.ctl.RemoveTodo(t.ID)
		}
	case key.Matches(msg, keys.Undo):
		if m.undo == nil {
			return m, nil, true
		}
		// The server lost the original, so it comes back as a new todo.
		if id, ok := m.ctl.AddTodo(m.undo.Title); ok && m.undo.Completed {
			m.ctl.CompleteTodo(id, true)
		}
		m.undo = nil
	case key.Matches(msg, keys.ClearCompleted):
		m.ctl.RemoveCompleted()
	case key.Matches(msg, keys.ToggleAll):
		m.ctl.SetAllCompleted(!m.ctl.AllDone())
	case key.Matches(msg, keys.All):
		m.ctl.Navigate(route.Fragment(model.VisibilityAll))
	case key.Matches(msg, keys.Active):
		m.ctl.Navigate(route.Fragment(model.VisibilityActive))
	case key.Matches(msg, keys.Completed):
		m.ctl.Navigate(route.Fragment(model.VisibilityCompleted))
	case key.Matches(msg, keys.NextFilter):
		m.ctl.SetVisibility(route.Next(m.ctl.Visibility()))
	case key.Matches(msg, keys.Add):
		m.mode = modeAdd
		m.ti.SetValue(m.ctl.NewTodo())
		m.ti.CursorEnd()
		m.ti.Placeholder = "What needs to be done?"
		return m, m.ti.Focus(), true
	case key.Matches(msg, keys.Edit):
		t, ok := m.selected()
		if !ok || !m.ctl.EditTodo(t.ID) {
			return m, nil, true
		}
		m.mode = modeEdit
		m.ti.SetValue(t.Title)
		m.ti.CursorEnd()
		m.ti.Placeholder = "Edit item title..."
		return m, m.ti.Focus(), true
	default:
		return m, nil, false
	}
	m.refresh()
	return m, nil, true
}

func (m modelTUI) View() string {
	listHeight := m.height - 6
	if m.mode != modeList {
		listHeight = m.height - 9
	}
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(m.width-4, listHeight)

	content := m.list.View()
	if m.mode != modeList {
		title := "Add new item"
		if m.mode == modeEdit {
			title = "Edit item (empty removes it)"
		}
		if m.err != "" {
			title += "  " + errorStyle.Render(m.err)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	content += "\n" + m.footer()
	return frameStyle.Render(content)
}

func (m modelTUI) footer() string {
	where := "local only"
	if m.remote != "" {
		where = "synced with " + m.remote
	}
	if n := m.ctl.State().Pending; n > 0 {
		where += "  " + pendingStyle.Render(fmt.Sprintf("%d waiting for server", n))
	}
	return mutedStyle.Render(where)
}
