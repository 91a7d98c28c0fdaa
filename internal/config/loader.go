package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/shiwa/ntpsync/internal/logger"
)

// DefaultSource метка, которой помечаются значения, прочитанные загрузчиком.
const DefaultSource = "registry"

// Имена значений в узле Parameters.
const (
	keyServer            = "Server"
	keyPort              = "Port"
	keyPollIntervalHours = "PollIntervalHours"
)

// ParametersPath путь от корня хранилища до узла параметров сервиса.
func ParametersPath(serviceName string) []string {
	return []string{"SYSTEM", "CurrentControlSet", "Services", serviceName, "Parameters"}
}

// Loader читает Settings из иерархического хранилища. Ошибки типов и лишние
// ключи не прерывают загрузку: они попадают в журнал, а параметр остаётся прежним.
type Loader struct {
	log    logger.Logger
	source string
}

// NewLoader source пустой означает DefaultSource.
func NewLoader(log logger.Logger, source string) *Loader {
	if source == "" {
		source = DefaultSource
	}
	return &Loader{log: log, source: source}
}

// Load всегда возвращает пригодные Settings.
func (l *Loader) Load(root Key, serviceName string) Settings {
	settings, report := l.read(root, serviceName)
	l.log.Write(report)
	return settings
}

func (l *Loader) read(root Key, serviceName string) (Settings, string) {
	settings := NewSettings()

	key, ok := descend(root, ParametersPath(serviceName))
	if !ok {
		return settings, fmt.Sprintf("No settings found in %s, using default values:\n%s: %s\n%s: %d\n%s: %d",
			l.source,
			keyServer, settings.Server.Get(),
			keyPort, settings.Port.Get(),
			keyPollIntervalHours, settings.PollIntervalHours.Get())
	}
	defer key.Close()

	var diag strings.Builder
	for _, name := range key.GetValueNames() {
		switch name {
		case keyServer:
			readValue(&settings.Server, key, name, KindString, l.source, cast.ToStringE, nil, &diag)
		case keyPort:
			readValue(&settings.Port, key, name, KindDWord, l.source, cast.ToIntE, nil, &diag)
		case keyPollIntervalHours:
			readValue(&settings.PollIntervalHours, key, name, KindDWord, l.source, cast.ToIntE, ValidPollIntervalHours, &diag)
		default:
			fmt.Fprintf(&diag, "Unexpected parameter '%s', ignoring\n", name)
		}
	}

	return settings, fmt.Sprintf("Service settings:\n%s%s", settings, diag.String())
}

// descend проходит путь сверху вниз; промежуточные узлы закрываются.
func descend(root Key, path []string) (Key, bool) {
	key := root
	for i, name := range path {
		next, ok := key.OpenSubKey(name)
		if i > 0 {
			_ = key.Close()
		}
		if !ok || next == nil {
			return nil, false
		}
		key = next
	}
	return key, true
}

// readValue присваивает значение только при совпадении объявленного типа
// и, если задан valid, только допустимое значение.
func readValue[T any](v *TrackedValue[T], key Key, name string, expected ValueKind, source string,
	convert func(interface{}) (T, error), valid func(T) bool, diag *strings.Builder) {
	actual := key.GetValueKind(name)
	if actual == expected {
		value, err := convert(key.GetValue(name))
		if err == nil {
			if valid != nil && !valid(value) {
				fmt.Fprintf(diag, "Value %v for key '%s' is out of range. Falling back to default value %v\n",
					value, name, v.Get())
				return
			}
			v.Set(value, source)
			return
		}
		actual = KindUnknown
	}
	fmt.Fprintf(diag, "Invalid data type for key '%s'. Expected: '%s', actual: '%s'. Falling back to default value %v\n",
		name, expected, actual, v.Get())
}
