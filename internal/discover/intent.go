package discover

import (
	"fmt"
	"strings"
)

// IntentKind tags a [Intent].
type IntentKind int

const (
	FreeTextIntent IntentKind = iota
	GenreIntent
	MoodIntent
	PersonalIntent
	TrendingIntent
	RecentIntent
)

func (k IntentKind) String() string {
	switch k {
	case FreeTextIntent:
		return "search"
	case GenreIntent:
		return "genre"
	case MoodIntent:
		return "mood"
	case PersonalIntent:
		return "personal"
	case TrendingIntent:
		return "trending"
	case RecentIntent:
		return "recent"
	default:
		return "unknown"
	}
}

// Intent is a user request for one view of movie data. Each kind maps to exactly one backend call.
type Intent struct {
	Kind IntentKind
	Term string
}

func FreeText(q string) Intent { return Intent{Kind: FreeTextIntent, Term: strings.TrimSpace(q)} }
func Genre(g string) Intent    { return Intent{Kind: GenreIntent, Term: strings.TrimSpace(g)} }
func Mood(m string) Intent     { return Intent{Kind: MoodIntent, Term: strings.TrimSpace(m)} }
func Personal() Intent         { return Intent{Kind: PersonalIntent} }
func Trending() Intent         { return Intent{Kind: TrendingIntent} }
func Recent() Intent           { return Intent{Kind: RecentIntent} }

func (i Intent) String() string {
	if i.Term == "" {
		return i.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", i.Kind, i.Term)
}

func (i Intent) needsTerm() bool {
	return i.Kind == FreeTextIntent || i.Kind == GenreIntent || i.Kind == MoodIntent
}

// prompt is shown instead of dispatching when a term is required but blank.
func (i Intent) prompt() string {
	switch i.Kind {
	case MoodIntent:
		return "Please enter your mood."
	case GenreIntent:
		return "Please choose a genre."
	default:
		return "Please enter a movie name."
	}
}

// tab is the tab an intent's results belong to.
func (i Intent) tab() string {
	switch i.Kind {
	case TrendingIntent:
		return TabTrending
	case RecentIntent:
		return TabRecent
	case MoodIntent:
		return TabMood
	case PersonalIntent:
		return TabPersonal
	default:
		return TabSearch
	}
}

func (i Intent) loadingText() string {
	if i.Kind == PersonalIntent {
		return "Loading your personalized recommendations..."
	}
	return "Loading amazing movies for you..."
}
