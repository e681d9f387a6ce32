package edgefiledata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/ghodss/yaml.v1"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/edgetelemetry/go-edge-sdk/subsystems/edgetypes"
)

// ReloaderFactory sets up a mechanism for reloading the source file when it changes, such as
// edgefilewatch.WatchFiles. It must call reload at least once after setup, and stop when
// closeCh is closed.
type ReloaderFactory func(paths []string, loggers ldlog.Loggers, reload func(), closeCh <-chan struct{}) error

// Provider is a file-backed SharedStateProvider. The source file is a JSON or YAML document
// whose top-level properties are state owner names:
//
//	configuration:
//	  edge:
//	    configId: "abc-123"
//	identity:
//	  identityMap:
//	    email: [{"id": "user@example.com"}]
//
// An owner absent from the file resolves with status SharedStateNone.
type Provider struct {
	absPath         string
	states          map[string]ldvalue.Value
	lock            sync.RWMutex
	loggers         ldlog.Loggers
	reloaderFactory ReloaderFactory
	closeOnce       sync.Once
	closeReloaderCh chan struct{}
}

// ProviderOption is a configuration option for NewProvider.
type ProviderOption func(*Provider)

// UseReloader makes the provider reload the file through the given factory whenever it
// changes.
func UseReloader(factory ReloaderFactory) ProviderOption {
	return func(p *Provider) { p.reloaderFactory = factory }
}

// Loggers sets the log destination.
func Loggers(loggers ldlog.Loggers) ProviderOption {
	return func(p *Provider) { p.loggers = loggers }
}

// NewProvider creates a Provider and performs the initial load. A file that cannot be read or
// parsed leaves the previous states (initially none) unmodified.
func NewProvider(path string, options ...ProviderOption) (*Provider, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to determine absolute path for '%s'", path)
	}
	p := &Provider{
		absPath: absPath,
		states:  make(map[string]ldvalue.Value),
	}
	for _, o := range options {
		o(p)
	}
	p.loggers.SetPrefix("FileDataProvider:")

	p.reload()
	if p.reloaderFactory != nil {
		p.closeReloaderCh = make(chan struct{})
		if err := p.reloaderFactory([]string{p.absPath}, p.loggers, p.reload, p.closeReloaderCh); err != nil {
			p.loggers.Errorf("Unable to start reloader: %s", err)
		}
	}
	return p, nil
}

//nolint:revive // no doc comment for standard method
func (p *Provider) GetSharedState(owner string, event edgetypes.Event) edgetypes.SharedState {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if value, ok := p.states[owner]; ok {
		return edgetypes.SharedState{Status: edgetypes.SharedStateSet, Value: value}
	}
	return edgetypes.SharedState{Status: edgetypes.SharedStateNone}
}

// Close stops the reloader, if any.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		if p.closeReloaderCh != nil {
			close(p.closeReloaderCh)
		}
	})
	return nil
}

func (p *Provider) reload() {
	rawData, err := os.ReadFile(p.absPath)
	if err != nil {
		p.loggers.Errorf("Unable to load shared states: %s [%s]", err, p.absPath)
		return
	}
	var parsed map[string]json.RawMessage
	if detectJSON(rawData) {
		err = json.Unmarshal(rawData, &parsed)
	} else {
		err = yaml.Unmarshal(rawData, &parsed)
	}
	if err != nil {
		p.loggers.Errorf("Error parsing file: %s [%s]", err, p.absPath)
		return
	}

	states := make(map[string]ldvalue.Value, len(parsed))
	for owner, raw := range parsed {
		var value ldvalue.Value
		if err := json.Unmarshal(raw, &value); err != nil {
			p.loggers.Errorf("Error parsing state %q: %s", owner, err)
			return
		}
		states[owner] = value
	}

	p.lock.Lock()
	p.states = states
	p.lock.Unlock()
}

func detectJSON(rawData []byte) bool {
	// A valid JSON file for our purposes must be an object, i.e. it must start with '{'
	return strings.HasPrefix(strings.TrimLeftFunc(string(rawData), unicode.IsSpace), "{")
}
