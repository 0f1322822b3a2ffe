package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"pkt.systems/pslog"
)

// Backend names accepted by ConnectionParams.Backend.
const (
	BackendMinIO = "minio"
	BackendAWS   = "aws"
)

// validate is the singleton validator instance.
var validate = validator.New()

// ConnectionParams describes a named object storage connection. Credentials
// are optional; when empty both backends fall back to their environment and
// instance credential chains.
type ConnectionParams struct {
	Name            string `validate:"required"`
	Backend         string `validate:"required,oneof=minio aws"`
	Endpoint        string `validate:"omitempty"`
	Region          string `validate:"omitempty"`
	Bucket          string `validate:"required"`
	Prefix          string `validate:"omitempty"`
	AccessKeyID     string `validate:"omitempty"`
	SecretAccessKey string `validate:"required_with=AccessKeyID"`
	Insecure        bool
	ForcePathStyle  bool
}

// Validate runs struct tag validation plus the rules tags cannot express.
func (p ConnectionParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("storage: %s failed %q validation", e.Field(), e.Tag())
		}
		return err
	}
	if p.Backend == BackendAWS && p.Region == "" {
		return fmt.Errorf("storage: region is required for the aws backend")
	}
	return nil
}

// Redacted returns a copy safe for logging and tool output.
func (p ConnectionParams) Redacted() ConnectionParams {
	out := p
	if out.SecretAccessKey != "" {
		out.SecretAccessKey = "REDACTED"
	}
	return out
}

// Connector is the named-connection table. Configure replaces an existing
// entry under the same name; a single mutex keeps the table consistent under
// concurrent tool calls.
type Connector struct {
	mu     sync.Mutex
	stores map[string]ObjectStore
	params map[string]ConnectionParams
	logger pslog.Logger
}

// NewConnector returns an empty connector.
func NewConnector(logger pslog.Logger) *Connector {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &Connector{
		stores: make(map[string]ObjectStore),
		params: make(map[string]ConnectionParams),
		logger: logger,
	}
}

// Configure validates params, builds the backend client, and registers it
// under params.Name. The previous connection under that name, if any, is
// replaced.
func (c *Connector) Configure(params ConnectionParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	var (
		store ObjectStore
		err   error
	)
	switch params.Backend {
	case BackendMinIO:
		store, err = newMinioStore(params)
	case BackendAWS:
		store, err = newAWSStore(params)
	default:
		err = fmt.Errorf("storage: unknown backend %q", params.Backend)
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.stores[params.Name] = store
	c.params[params.Name] = params
	c.mu.Unlock()
	c.logger.Info("storage.connection.configured",
		"connection", params.Name,
		"backend", params.Backend,
		"bucket", params.Bucket,
		"endpoint", params.Endpoint)
	return nil
}

// Store returns the object store registered under name.
func (c *Connector) Store(name string) (ObjectStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	store, ok := c.stores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, name)
	}
	return store, nil
}

// Params returns the redacted parameters of a registered connection.
func (c *Connector) Params(name string) (ConnectionParams, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	params, ok := c.params[name]
	if !ok {
		return ConnectionParams{}, fmt.Errorf("%w: %s", ErrUnknownConnection, name)
	}
	return params.Redacted(), nil
}

// Names returns the configured connection names, sorted.
func (c *Connector) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.stores))
	for name := range c.stores {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Remove drops a connection. The backend client holds no resources beyond
// its HTTP transport, so there is nothing to close.
func (c *Connector) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.stores[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, name)
	}
	delete(c.stores, name)
	delete(c.params, name)
	return nil
}
