package fetch

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/prowl/pkg/logging"
)

// ErrUnknownAction is returned by Action.Validate for names outside the
// permitted set.
var ErrUnknownAction = errors.New("unknown action")

// ActionName identifies a permitted post-navigation page action. The
// set is closed: names are validated at configuration time instead of
// resolving arbitrary strings against the page at run time.
type ActionName string

const (
	ActionClick           ActionName = "click"
	ActionFill            ActionName = "fill"
	ActionPress           ActionName = "press"
	ActionHover           ActionName = "hover"
	ActionEvaluate        ActionName = "evaluate"
	ActionScreenshot      ActionName = "screenshot"
	ActionTitle           ActionName = "title"
	ActionContent         ActionName = "content"
	ActionWaitForSelector ActionName = "wait_for_selector"
	ActionWaitForTimeout  ActionName = "wait_for_timeout"
	ActionReload          ActionName = "reload"
	ActionGoBack          ActionName = "go_back"
)

// Action is one scripted step run against the tab after navigation.
// Fields beyond Name are arguments; which ones apply depends on the
// action. Result is filled after execution.
type Action struct {
	Name ActionName

	// Selector targets an element (click, fill, press, hover,
	// wait_for_selector).
	Selector string

	// Value is the fill text or the key to press.
	Value string

	// Expression is the JavaScript source for evaluate.
	Expression string

	// TimeoutMS bounds the action (and is the wait duration for
	// wait_for_timeout), in milliseconds.
	TimeoutMS float64

	// State is the wait_for_selector target state: attached, detached,
	// visible or hidden.
	State string

	// FullPage makes screenshot capture the whole page.
	FullPage bool

	// Result holds the action's captured result after execution: the
	// page title for title, rendered HTML for content, PNG bytes for
	// screenshot, the evaluated value for evaluate.
	Result any
}

// Validate checks the action at configuration time, before any tab is
// acquired.
func (a *Action) Validate() error {
	switch a.Name {
	case ActionClick, ActionHover:
		if a.Selector == "" {
			return fmt.Errorf("action %q requires a selector", a.Name)
		}
	case ActionFill, ActionPress:
		if a.Selector == "" {
			return fmt.Errorf("action %q requires a selector", a.Name)
		}
		if a.Value == "" {
			return fmt.Errorf("action %q requires a value", a.Name)
		}
	case ActionEvaluate:
		if a.Expression == "" {
			return fmt.Errorf("action %q requires an expression", a.Name)
		}
	case ActionWaitForSelector:
		if a.Selector == "" {
			return fmt.Errorf("action %q requires a selector", a.Name)
		}
		switch a.State {
		case "", "attached", "detached", "visible", "hidden":
		default:
			return fmt.Errorf("action %q: invalid state %q", a.Name, a.State)
		}
	case ActionWaitForTimeout:
		if a.TimeoutMS <= 0 {
			return fmt.Errorf("action %q requires a positive timeout", a.Name)
		}
	case ActionScreenshot, ActionTitle, ActionContent, ActionReload, ActionGoBack:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Name)
	}
	return nil
}

// ValidateActions validates a whole action list up front.
func ValidateActions(actions []*Action) error {
	for i, a := range actions {
		if a == nil {
			return fmt.Errorf("action %d is nil", i)
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// actionFunc executes one action against a page.
type actionFunc func(page playwright.Page, a *Action) (any, error)

// actionTable dispatches validated action names. An action that
// validated but has no entry here is logged and skipped, never fatal.
var actionTable = map[ActionName]actionFunc{
	ActionClick: func(page playwright.Page, a *Action) (any, error) {
		opts := playwright.PageClickOptions{}
		if a.TimeoutMS > 0 {
			opts.Timeout = playwright.Float(a.TimeoutMS)
		}
		return nil, page.Click(a.Selector, opts)
	},
	ActionFill: func(page playwright.Page, a *Action) (any, error) {
		opts := playwright.PageFillOptions{}
		if a.TimeoutMS > 0 {
			opts.Timeout = playwright.Float(a.TimeoutMS)
		}
		return nil, page.Fill(a.Selector, a.Value, opts)
	},
	ActionPress: func(page playwright.Page, a *Action) (any, error) {
		opts := playwright.PagePressOptions{}
		if a.TimeoutMS > 0 {
			opts.Timeout = playwright.Float(a.TimeoutMS)
		}
		return nil, page.Press(a.Selector, a.Value, opts)
	},
	ActionHover: func(page playwright.Page, a *Action) (any, error) {
		opts := playwright.PageHoverOptions{}
		if a.TimeoutMS > 0 {
			opts.Timeout = playwright.Float(a.TimeoutMS)
		}
		return nil, page.Hover(a.Selector, opts)
	},
	ActionEvaluate: func(page playwright.Page, a *Action) (any, error) {
		return page.Evaluate(a.Expression)
	},
	ActionScreenshot: func(page playwright.Page, a *Action) (any, error) {
		opts := playwright.PageScreenshotOptions{}
		if a.FullPage {
			opts.FullPage = playwright.Bool(true)
		}
		return page.Screenshot(opts)
	},
	ActionTitle: func(page playwright.Page, a *Action) (any, error) {
		return page.Title()
	},
	ActionContent: func(page playwright.Page, a *Action) (any, error) {
		return page.Content()
	},
	ActionWaitForSelector: func(page playwright.Page, a *Action) (any, error) {
		opts := playwright.PageWaitForSelectorOptions{}
		if a.State != "" {
			state := playwright.WaitForSelectorState(a.State)
			opts.State = &state
		}
		if a.TimeoutMS > 0 {
			opts.Timeout = playwright.Float(a.TimeoutMS)
		}
		return page.WaitForSelector(a.Selector, opts)
	},
	ActionWaitForTimeout: func(page playwright.Page, a *Action) (any, error) {
		page.WaitForTimeout(a.TimeoutMS)
		return nil, nil
	},
	ActionReload: func(page playwright.Page, a *Action) (any, error) {
		_, err := page.Reload()
		return nil, err
	},
	ActionGoBack: func(page playwright.Page, a *Action) (any, error) {
		_, err := page.GoBack()
		return nil, err
	},
}

// Runner executes scripted actions strictly sequentially; later actions
// depend on DOM state produced by earlier ones.
type Runner struct {
	log          *logging.Logger
	navTimeoutMS float64

	// test seams; nil means the real dispatch table / load-state wait
	table  map[ActionName]actionFunc
	settle func(page playwright.Page, timeoutMS float64) error
}

// NewRunner creates a runner that bounds each post-action settle wait
// by timeoutMS (zero means the engine default).
func NewRunner(log *logging.Logger, timeoutMS float64) *Runner {
	return &Runner{log: log, navTimeoutMS: timeoutMS}
}

// Run executes the actions in order, storing each result on its action.
// An action without a dispatch entry is skipped with a warning and the
// pipeline continues; an action that executes and fails is fatal.
func (r *Runner) Run(page playwright.Page, actions []*Action) error {
	table := r.table
	if table == nil {
		table = actionTable
	}
	settle := r.settle
	if settle == nil {
		settle = waitForLoadState
	}

	for _, a := range actions {
		fn, ok := table[a.Name]
		if !ok {
			r.log.Warnf("ignoring action %q: no such page capability", a.Name)
			continue
		}

		result, err := fn(page, a)
		if err != nil {
			return fmt.Errorf("action %q failed: %w", a.Name, err)
		}
		a.Result = result

		if err := settle(page, r.navTimeoutMS); err != nil {
			return fmt.Errorf("waiting for page to settle after %q: %w", a.Name, err)
		}
	}
	return nil
}

func waitForLoadState(page playwright.Page, timeoutMS float64) error {
	opts := playwright.PageWaitForLoadStateOptions{}
	if timeoutMS > 0 {
		opts.Timeout = playwright.Float(timeoutMS)
	}
	return page.WaitForLoadState(opts)
}
