package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazysched/internal/calendar"
	"github.com/Joseda-hg/lazysched/internal/model"
	"github.com/Joseda-hg/lazysched/internal/schedule"
	"github.com/Joseda-hg/lazysched/internal/view"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader = "header"
	viewFooter = "footer"
	viewMain   = "main"
	viewSide   = "side"
	viewForm   = "form"
	viewHelp   = "help"
)

const (
	modeCalendar = "calendar"
	modeList     = "list"
)

type Options struct {
	WeekStart time.Weekday
	// DefaultView is "calendar" or "list".
	DefaultView string
	// Now defaults to time.Now.
	Now func() time.Time
}

type UI struct {
	store *schedule.Store
	gui   *gocui.Gui

	weekStart time.Weekday
	now       func() time.Time

	mode   string
	filter view.Filter
	focus  string

	year        int
	month       int
	selectedDay int

	all   []model.Todo
	stats view.Stats
	list  []model.Todo
	side  []model.Todo
	grid  calendar.Grid

	selectedList int
	selectedSide int

	form       *formState
	formEditor *formEditor
	helpActive bool
	status     string
}

type formState struct {
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

func newUI(store *schedule.Store, opts Options) *UI {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	mode := modeCalendar
	if opts.DefaultView == modeList {
		mode = modeList
	}

	today := opts.Now()
	year, month := calendar.FromTime(today)
	ui := &UI{
		store:       store,
		weekStart:   opts.WeekStart,
		now:         opts.Now,
		mode:        mode,
		filter:      view.FilterAll,
		focus:       viewMain,
		year:        year,
		month:       month,
		selectedDay: today.Day(),
	}
	ui.formEditor = &formEditor{ui: ui}
	ui.refresh()
	return ui
}

func Run(store *schedule.Store, opts Options) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(store, opts)
	ui.gui = gui
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	global := []struct {
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyCtrlC, u.quit},
		{'q', u.quit},
		{'r', u.reload},
		{'a', u.addTodo},
		{'x', u.toggleTodo},
		{'d', u.deleteTodo},
		{'f', u.cycleFilter},
		{'v', u.switchView},
		{'t', u.jumpToday},
		{'[', u.prevMonth},
		{']', u.nextMonth},
		{gocui.KeyPgup, u.prevMonth},
		{gocui.KeyPgdn, u.nextMonth},
		{'?', u.toggleHelp},
		{gocui.KeyTab, u.switchFocus},
	}
	for _, binding := range global {
		if err := gui.SetKeybinding("", binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}

	for _, name := range []string{viewMain, viewSide} {
		if err := gui.SetKeybinding(name, gocui.KeySpace, gocui.ModNone, u.toggleTodo); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'j', gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'k', gocui.ModNone, u.moveUp); err != nil {
			return err
		}
	}
	if err := gui.SetKeybinding(viewMain, gocui.KeyArrowLeft, gocui.ModNone, u.moveLeft); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, 'h', gocui.ModNone, u.moveLeft); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, gocui.KeyArrowRight, gocui.ModNone, u.moveRight); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, 'l', gocui.ModNone, u.moveRight); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, gocui.KeyEnter, gocui.ModNone, u.focusSide); err != nil {
		return err
	}

	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitFormNow); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyCtrlJ, gocui.ModNone, u.submitFormNow); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyBacktab, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, 'q', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, '?', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}

	if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewMain, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onClick(gui, viewMain, opts)
	}}); err != nil {
		return err
	}
	if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewSide, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onClick(gui, viewSide, opts)
	}}); err != nil {
		return err
	}
	return u.bindMouseScroll(gui)
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := maxY - 2
	if footerY1 < 1 {
		footerY1 = 1
	}
	footerY0 := footerY1 - 2
	if footerY0 < 1 {
		footerY0 = 1
	}
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.BgColor = gocui.ColorDefault
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	mainWidth := computeMainWidth(maxX)
	mainX1 := mainWidth - 1
	sideX0 := mainX1 + 1
	if sideX0 >= maxX {
		sideX0 = mainX1
	}

	mainView, err := gui.SetView(viewMain, 0, bodyTop, mainX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if u.mode == modeList {
		mainView.Title = "List (" + string(u.filter) + ")"
		mainView.TitleColor = gocui.ColorYellow
	} else {
		mainView.Title = "Calendar"
		mainView.TitleColor = gocui.ColorGreen
	}
	applyViewStyle(mainView, u.focus == viewMain, u.mode == modeList)
	u.renderMain(mainView)

	sideView, err := gui.SetView(viewSide, sideX0, bodyTop, maxX-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	sideView.Title = u.sideTitle()
	applyViewStyle(sideView, u.focus == viewSide, true)
	u.renderSide(sideView)

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil || (u.form == nil && !u.helpActive) {
		_, _ = gui.SetCurrentView(u.focus)
	}

	gui.Cursor = u.form != nil

	return nil
}

// computeMainWidth leaves room for a seven column calendar, giving the rest
// of the screen to the side pane.
func computeMainWidth(width int) int {
	calendarWidth := 7*(cellWidth+1) + 2
	mainWidth := max(width*3/5, calendarWidth)
	if mainWidth > width-20 {
		mainWidth = max(width/2, 1)
	}
	return mainWidth
}

// refresh rebuilds every derived list from a fresh snapshot of the store.
func (u *UI) refresh() {
	u.all = u.store.All()
	u.stats = view.Count(u.all)
	u.list = view.List(u.all, u.filter)

	today := model.DateKey(u.now())
	u.grid = calendar.Project(u.year, u.month, u.all, calendar.Options{WeekStart: u.weekStart, Today: today})
	if u.selectedDay < 1 {
		u.selectedDay = 1
	}
	if u.selectedDay > u.grid.DaysInMonth {
		u.selectedDay = u.grid.DaysInMonth
	}

	if u.mode == modeCalendar {
		u.side = view.Sorted(u.grid.Day(u.selectedDay).Todos)
	} else {
		u.side = view.Sorted(view.OnDate(u.all, today))
	}

	if u.selectedList >= len(u.list) {
		u.selectedList = max(len(u.list)-1, 0)
	}
	if u.selectedSide >= len(u.side) {
		u.selectedSide = max(len(u.side)-1, 0)
	}
}

func (u *UI) selectedDate() string {
	return calendar.DateKey(u.year, u.month, u.selectedDay)
}

func (u *UI) sideTitle() string {
	if u.mode == modeCalendar {
		return "Day " + u.selectedDate()
	}
	return "Today " + model.DateKey(u.now())
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	fmt.Fprintf(view, "Today: %s | View: %s | Filter: %s | %s",
		model.DateKey(u.now()), u.mode, u.filter, formatStats(u.stats))
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | x/space toggle | d delete | f filter | v list/calendar | [ ] month | t today")
	fmt.Fprintln(view, "h/j/k/l or arrows move | tab pane | enter day | r reload | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderMain(view *gocui.View) {
	view.Clear()
	focused := u.focus == viewMain

	if u.mode == modeCalendar {
		for _, line := range formatCalendar(u.grid, u.selectedDay) {
			fmt.Fprintln(view, line)
		}
		return
	}

	if len(u.list) == 0 {
		fmt.Fprintln(view, "  nothing to show")
		return
	}
	u.renderTodoList(view, u.list, u.selectedList, focused, formatTodoSummary)
}

func (u *UI) renderSide(view *gocui.View) {
	view.Clear()
	if len(u.side) == 0 {
		fmt.Fprintln(view, "  no todos")
		return
	}
	u.renderTodoList(view, u.side, u.selectedSide, u.focus == viewSide, formatBucketItem)
}

func (u *UI) renderTodoList(view *gocui.View, todos []model.Todo, selected int, focused bool, format func(model.Todo) string) {
	for i, todo := range todos {
		prefix := " "
		if i == selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s\n", prefix, format(todo))
	}
	if focused {
		view.SetCursor(0, min(selected, len(todos)-1))
	}
}

func (u *UI) onClick(gui *gocui.Gui, viewName string, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewName)
	if err != nil {
		return nil
	}

	x0, y0, _, _ := view.Dimensions()
	ox, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)
	column := max(opts.X-x0-1+ox, 0)

	switch {
	case viewName == viewSide:
		u.selectedSide = min(row, len(u.side)-1)
	case u.mode == modeList:
		u.selectedList = min(row, len(u.list)-1)
	default:
		if day := dayAtCell(u.grid, row, column/(cellWidth+1)); day > 0 {
			u.selectedDay = day
			u.selectedSide = 0
		}
	}
	return u.setFocus(gui, viewName)
}

func (u *UI) bindMouseScroll(gui *gocui.Gui) error {
	for _, name := range []string{viewMain, viewSide} {
		if err := gui.SetKeybinding(name, gocui.MouseWheelUp, gocui.ModNone, u.scrollUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.MouseWheelDown, gocui.ModNone, u.scrollDown); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollUp(1)
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollDown(1)
	return nil
}

// selectedTodo is the list selection in list mode and the day bucket
// selection otherwise.
func (u *UI) selectedTodo() *model.Todo {
	if u.focus == viewMain && u.mode == modeList {
		if u.selectedList >= 0 && u.selectedList < len(u.list) {
			return &u.list[u.selectedList]
		}
		return nil
	}
	if u.selectedSide >= 0 && u.selectedSide < len(u.side) {
		return &u.side[u.selectedSide]
	}
	return nil
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.focus == viewMain {
		return u.setFocus(gui, viewSide)
	}
	return u.setFocus(gui, viewMain)
}

func (u *UI) focusSide(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewSide)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	u.refresh()
	return nil
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch {
	case u.focus == viewSide:
		if u.selectedSide < len(u.side)-1 {
			u.selectedSide++
		}
	case u.mode == modeList:
		if u.selectedList < len(u.list)-1 {
			u.selectedList++
		}
	default:
		u.moveDay(7)
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch {
	case u.focus == viewSide:
		if u.selectedSide > 0 {
			u.selectedSide--
		}
	case u.mode == modeList:
		if u.selectedList > 0 {
			u.selectedList--
		}
	default:
		u.moveDay(-7)
	}
	return nil
}

func (u *UI) moveLeft(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.mode != modeCalendar {
		return nil
	}
	u.moveDay(-1)
	return nil
}

func (u *UI) moveRight(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.mode != modeCalendar {
		return nil
	}
	u.moveDay(1)
	return nil
}

// moveDay shifts the selected day, crossing into neighbouring months.
func (u *UI) moveDay(delta int) {
	target := time.Date(u.year, time.Month(u.month+1), u.selectedDay+delta, 0, 0, 0, 0, time.Local)
	u.year, u.month = calendar.FromTime(target)
	u.selectedDay = target.Day()
	u.selectedSide = 0
	u.refresh()
}

func (u *UI) prevMonth(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.shiftMonth(-1)
	return nil
}

func (u *UI) nextMonth(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.shiftMonth(1)
	return nil
}

// shiftMonth keeps the day of month, clamped to the target month's length.
func (u *UI) shiftMonth(delta int) {
	u.year, u.month = calendar.Shift(u.year, u.month, delta)
	u.selectedDay = min(u.selectedDay, calendar.DaysIn(u.year, u.month))
	u.selectedSide = 0
	u.refresh()
}

func (u *UI) jumpToday(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	today := u.now()
	u.year, u.month = calendar.FromTime(today)
	u.selectedDay = today.Day()
	u.selectedSide = 0
	u.refresh()
	return nil
}

func (u *UI) cycleFilter(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.filter = u.filter.Next()
	u.selectedList = 0
	u.refresh()
	return nil
}

func (u *UI) switchView(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.mode == modeCalendar {
		u.mode = modeList
	} else {
		u.mode = modeCalendar
	}
	u.selectedSide = 0
	u.refresh()
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	u.refresh()
	return nil
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.form != nil {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	if gui != nil {
		_ = gui.DeleteView(viewHelp)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewHelp, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) addTodo(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	date := ""
	if u.mode == modeCalendar {
		date = u.selectedDate()
	}
	u.form = &formState{fields: buildFormFields(date, u.store.Variant())}
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(50, maxX/2)
	height := 6
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewForm, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = "New Todo"
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) submitFormNow(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}

	input, err := parseFormFields(u.form.fields)
	if err != nil {
		u.status = err.Error()
		return nil
	}

	todo, created, err := u.store.Create(context.Background(), input)
	switch {
	case err != nil:
		u.status = statusFor(err)
	case !created:
		u.status = "nothing added: text is required"
	default:
		u.status = ""
	}
	if created && u.mode == modeCalendar && todo.Date != "" {
		u.jumpToDate(todo.Date)
	}

	u.form = nil
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(u.focus)
	}
	u.refresh()
	return nil
}

// jumpToDate moves the calendar to a YYYY-MM-DD date.
func (u *UI) jumpToDate(date string) {
	parsed, err := time.ParseInLocation(model.DateLayout, date, time.Local)
	if err != nil {
		return
	}
	u.year, u.month = calendar.FromTime(parsed)
	u.selectedDay = parsed.Day()
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return nil
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	label := u.form.fields[u.form.index].Label + ": "
	cursorX := len([]rune(label)) + len([]rune(u.form.fields[u.form.index].Value)) + 2
	view.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}

func (u *UI) toggleTodo(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTodo()
	if selected == nil {
		return nil
	}
	_, err := u.store.Toggle(context.Background(), selected.ID)
	u.status = statusFor(err)
	u.refresh()
	return nil
}

func (u *UI) deleteTodo(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTodo()
	if selected == nil {
		return nil
	}
	_, err := u.store.Delete(context.Background(), selected.ID)
	u.status = statusFor(err)
	u.refresh()
	return nil
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Views:",
		"  v switch list/calendar | tab switch pane | enter open day",
		"  [ ] or pgup/pgdn previous/next month | t jump to today",
		"",
		"Navigation:",
		"  j/k or up/down move selection (a week in the calendar)",
		"  h/l or left/right move one day (calendar)",
		"  mouse click selects a day or todo, wheel scrolls",
		"",
		"Actions:",
		"  a add todo | x or space toggle done | d delete",
		"  f cycle filter all/pending/completed (list)",
		"  enter save (form) | tab next field | esc cancel",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}
