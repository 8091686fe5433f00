// Package conversation implements the add-birthday dialogue as an explicit
// state machine: a state enum plus a transition table keyed by
// (current state, input kind), with per-chat state kept in a pluggable
// session store. The machine knows nothing about the chat transport; it
// consumes text and produces replies with keyboard hints.
package conversation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"bdaybot/internal/database"
	"bdaybot/internal/format"
)

// State is a step of the add-birthday dialogue.
type State int

const (
	StateMonth State = iota + 1
	StateDay
	StateName
	StateConfirm
)

// InputKind classifies one incoming message.
type InputKind int

const (
	InputText InputKind = iota
	InputCancel
	InputRestart
	InputSave
)

// Control button labels shared with the reply keyboards.
const (
	ButtonCancel  = "❌ отмена"
	ButtonRestart = "🔄 начать заново"
	ButtonSave    = "💾 сохранить"
)

// Classify maps message text onto an input kind.
func Classify(text string) InputKind {
	switch strings.TrimSpace(text) {
	case ButtonCancel:
		return InputCancel
	case ButtonRestart:
		return InputRestart
	case ButtonSave:
		return InputSave
	default:
		return InputText
	}
}

// Keyboard tells the transport which reply keyboard to render.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardMonths
	KeyboardDays
	KeyboardControls
	KeyboardConfirm
	KeyboardRemove
)

// Reply is what the machine wants said back to the chat. Days is only
// meaningful with KeyboardDays.
type Reply struct {
	Text     string
	Keyboard Keyboard
	Days     int
}

// Draft accumulates the entered birthday across steps.
type Draft struct {
	Month string
	Day   int
	Name  string
}

// Session is one chat's dialogue position.
type Session struct {
	State State
	Draft Draft
}

// Recorder persists a confirmed draft (append to the shared workbook and
// push it back to the drive).
type Recorder interface {
	Record(ctx context.Context, draft Draft) error
}

// NameIndex answers whether a partner name is already on record.
// database.Store satisfies it.
type NameIndex interface {
	GetBirthdayByName(ctx context.Context, name string) *database.Birthday
}

// Dialogue prompts and validation complaints.
const (
	promptMonth = "1/3 ➡️ Выберите месяц 📅, воспользовавшись интерактивной клавиатурой"
	promptDay   = "2/3 ➡️ Выберите день 🔢, воспользовавшись интерактивной клавиатурой."
	promptName  = "3/3 ➡️ Введите ФИО партнера, используя в том числе " +
		"заглавные буквы и пробелы.\n" +
		"ФИО должно содержать не менее 5-ти символов и 1-го пробела."
	badMonth   = "❗Пожалуйста, выберите месяц, воспользовавшись интерактивной клавиатурой."
	badDay     = "❗Пожалуйста, выберите день, воспользовавшись интерактивной клавиатурой."
	badName    = "❗ФИО должно быть более 5 символов в длину и содержать хотя бы один пробел."
	badConfirm = "❗Для продолжения, введите команду, " +
		"воспользовавшись интерактивной клавиатурой."
	cancelled  = "Команда отменена"
	saveFailed = "🔌Не удалось обновить файл на Яндекс Диске.\n" +
		"Менеджер бота уже в курсе проблемы и работает над решением.\n" +
		"Попробуйте повторить попытку позднее."
)

// Machine drives the dialogue. One Machine serves all chats; per-chat
// position lives in the session store.
type Machine struct {
	sessions SessionStore
	recorder Recorder
	names    NameIndex
	logger   *slog.Logger
}

// NewMachine wires a machine to its session store and collaborators.
func NewMachine(sessions SessionStore, recorder Recorder, names NameIndex, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Machine{
		sessions: sessions,
		recorder: recorder,
		names:    names,
		logger:   logger.With("component", "conversation"),
	}
}

type transitionKey struct {
	state State
	input InputKind
}

type transitionFunc func(ctx context.Context, m *Machine, s *Session, text string) Reply

// transitions is the full dialogue table. Cancel is handled uniformly
// before the lookup; everything else goes through here.
var transitions = map[transitionKey]transitionFunc{
	{StateMonth, InputText}:      acceptMonth,
	{StateDay, InputText}:        acceptDay,
	{StateDay, InputRestart}:     restart,
	{StateName, InputText}:       acceptName,
	{StateName, InputRestart}:    restart,
	{StateConfirm, InputSave}:    save,
	{StateConfirm, InputRestart}: restart,
}

// Start begins (or restarts) the dialogue for a chat.
func (m *Machine) Start(ctx context.Context, chatID int64) (Reply, error) {
	session := Session{State: StateMonth}
	if err := m.sessions.Put(ctx, chatID, session); err != nil {
		return Reply{}, fmt.Errorf("failed to store session: %w", err)
	}
	m.logger.InfoContext(ctx, "Dialogue started", "chat_id", chatID)
	return Reply{Text: promptMonth, Keyboard: KeyboardMonths}, nil
}

// Cancel drops the chat's session if any.
func (m *Machine) Cancel(ctx context.Context, chatID int64) (Reply, error) {
	if err := m.sessions.Delete(ctx, chatID); err != nil {
		return Reply{}, fmt.Errorf("failed to drop session: %w", err)
	}
	return Reply{Text: cancelled, Keyboard: KeyboardRemove}, nil
}

// Active reports whether the chat has a dialogue in progress.
func (m *Machine) Active(ctx context.Context, chatID int64) bool {
	_, ok, err := m.sessions.Get(ctx, chatID)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to read session", "chat_id", chatID, "error", err)
		return false
	}
	return ok
}

// Handle feeds one message into the chat's dialogue. The second return
// value is false when the chat has no session; the caller should let other
// handlers deal with the message.
func (m *Machine) Handle(ctx context.Context, chatID int64, text string) (Reply, bool, error) {
	session, ok, err := m.sessions.Get(ctx, chatID)
	if err != nil {
		return Reply{}, false, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return Reply{}, false, nil
	}

	input := Classify(text)
	if input == InputCancel {
		reply, err := m.Cancel(ctx, chatID)
		return reply, true, err
	}

	transition, ok := transitions[transitionKey{session.State, input}]
	if !ok {
		// Unexpected input for this step: repeat the step's prompt.
		return m.reprompt(session), true, nil
	}

	reply := transition(ctx, m, &session, text)
	if session.State == 0 {
		if err := m.sessions.Delete(ctx, chatID); err != nil {
			return Reply{}, true, fmt.Errorf("failed to drop session: %w", err)
		}
	} else if err := m.sessions.Put(ctx, chatID, session); err != nil {
		return Reply{}, true, fmt.Errorf("failed to store session: %w", err)
	}
	return reply, true, nil
}

func (m *Machine) reprompt(s Session) Reply {
	switch s.State {
	case StateMonth:
		return Reply{Text: badMonth, Keyboard: KeyboardMonths}
	case StateDay:
		return Reply{Text: badDay, Keyboard: KeyboardDays, Days: format.DaysInMonth(s.Draft.Month)}
	case StateName:
		return Reply{Text: badName, Keyboard: KeyboardControls}
	default:
		return Reply{Text: badConfirm, Keyboard: KeyboardConfirm}
	}
}

func acceptMonth(_ context.Context, _ *Machine, s *Session, text string) Reply {
	month := strings.ToLower(strings.TrimSpace(text))
	if !validMonth(month) {
		return Reply{Text: badMonth, Keyboard: KeyboardMonths}
	}
	s.Draft.Month = month
	s.State = StateDay
	return Reply{Text: promptDay, Keyboard: KeyboardDays, Days: format.DaysInMonth(month)}
}

func acceptDay(_ context.Context, _ *Machine, s *Session, text string) Reply {
	maxDays := format.DaysInMonth(s.Draft.Month)
	day, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || day < 1 || day > maxDays {
		return Reply{Text: badDay, Keyboard: KeyboardDays, Days: maxDays}
	}
	s.Draft.Day = day
	s.State = StateName
	return Reply{Text: promptName, Keyboard: KeyboardControls}
}

func acceptName(ctx context.Context, m *Machine, s *Session, text string) Reply {
	name := strings.TrimSpace(text)
	if utf8.RuneCountInString(name) < 5 || !strings.Contains(name, " ") {
		return Reply{Text: badName, Keyboard: KeyboardControls}
	}
	if m.names != nil && m.names.GetBirthdayByName(ctx, name) != nil {
		return Reply{
			Text: fmt.Sprintf("❗Партнер с ФИО `%s` уже существует.\n"+
				"Убедитесь, что вы добавляете ФИО нового партнера.\n"+
				"При совпадении ФИО добавьте через пробел атрибут отличия.\n"+
				"Например: Иванов Иван Минобрнауки.", name),
			Keyboard: KeyboardControls,
		}
	}
	s.Draft.Name = name
	s.State = StateConfirm
	return Reply{Text: confirmText(s.Draft), Keyboard: KeyboardConfirm}
}

func save(ctx context.Context, m *Machine, s *Session, _ string) Reply {
	draft := s.Draft
	s.State = 0 // dialogue finished either way, session dropped by Handle
	if err := m.recorder.Record(ctx, draft); err != nil {
		m.logger.ErrorContext(ctx, "Failed to record new birthday", "name", draft.Name, "error", err)
		return Reply{Text: saveFailed, Keyboard: KeyboardRemove}
	}
	m.logger.InfoContext(ctx, "New birthday recorded", "name", draft.Name)
	return Reply{
		Text: fmt.Sprintf("👍Вы добавили день рождения нового партнера:\n%d %s, %s",
			draft.Day, format.Genitive(draft.Month), draft.Name),
		Keyboard: KeyboardRemove,
	}
}

func restart(_ context.Context, _ *Machine, s *Session, _ string) Reply {
	s.Draft = Draft{}
	s.State = StateMonth
	return Reply{Text: promptMonth, Keyboard: KeyboardMonths}
}

func confirmText(d Draft) string {
	return fmt.Sprintf("Вы ввели день рождения партнера:\n"+
		"💎 %d %s, %s.\n"+
		"Вы можете сохранить 💾, отменить ❌ или ввести "+
		"день рождения заново 🔄, воспользовавшись "+
		"соответствующими кнопками на интерактивной клавиатуре.",
		d.Day, format.Genitive(d.Month), d.Name)
}

func validMonth(name string) bool {
	for _, m := range format.Months {
		if m == name {
			return true
		}
	}
	return false
}
