package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/logging"
)

type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

// ScyllaManager keeps one session per keyspace and recreates dead ones.
type ScyllaManager struct {
	sessions map[string]*gocql.Session
	configs  map[string]ScyllaKeyspaceConfig
	audit    string
	mu       sync.Mutex
}

// InitScyllaDB opens the audit keyspace session and makes sure its table exists.
func InitScyllaDB(cfg config.Config) error {
	if len(cfg.ScyllaHosts) == 0 || cfg.ScyllaAuditKeyspace == "" {
		return errors.New("SCYLLA_HOSTS or SCYLLA_AUDIT_KEYSPACE not set")
	}

	manager := &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs: map[string]ScyllaKeyspaceConfig{
			cfg.ScyllaAuditKeyspace: {
				Hosts:       cfg.ScyllaHosts,
				Keyspace:    cfg.ScyllaAuditKeyspace,
				Username:    cfg.ScyllaAuditRole,
				Password:    cfg.ScyllaAuditPassword,
				Timeout:     5 * time.Second,
				NumConns:    4,
				Consistency: gocql.LocalQuorum,
			},
		},
		audit: cfg.ScyllaAuditKeyspace,
	}

	session, err := manager.GetSession(cfg.ScyllaAuditKeyspace)
	if err != nil {
		return err
	}
	if err := ensureAuditSchema(session); err != nil {
		return err
	}

	Scylla = manager
	return nil
}

func createScyllaCluster(c ScyllaKeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(c.Hosts...)
	cluster.Keyspace = c.Keyspace
	cluster.Consistency = c.Consistency
	cluster.Timeout = c.Timeout
	cluster.NumConns = c.NumConns
	cluster.ReconnectInterval = time.Second
	if c.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.Username,
			Password: c.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// GetSession returns a live session for a configured keyspace.
func (sm *ScyllaManager) GetSession(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	c, ok := sm.configs[keyspace]
	if !ok {
		return nil, fmt.Errorf("keyspace %q not configured", keyspace)
	}

	if session, ok := sm.sessions[keyspace]; ok {
		if !session.Closed() {
			return session, nil
		}
		delete(sm.sessions, keyspace)
	}

	session, err := createScyllaCluster(c).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("scylla session for %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	logging.L().Info("✅ ScyllaDB session opened", zap.String("keyspace", keyspace), zap.String("role", c.Username))
	return session, nil
}

// AuditSession returns the session of the audit keyspace.
func (sm *ScyllaManager) AuditSession() (*gocql.Session, error) {
	return sm.GetSession(sm.audit)
}

// CloseScylla closes every session.
func CloseScylla() {
	Scylla.mu.Lock()
	defer Scylla.mu.Unlock()

	for keyspace, session := range Scylla.sessions {
		session.Close()
		logging.L().Info("🔌 ScyllaDB session closed", zap.String("keyspace", keyspace))
	}
}

// one partition per UTC day, newest first
const auditTableCQL = `
CREATE TABLE IF NOT EXISTS audit_logs (
	day text,
	id timeuuid,
	user_id text,
	user_email text,
	action text,
	resource text,
	resource_id text,
	old_value text,
	new_value text,
	ip_address text,
	user_agent text,
	success boolean,
	error_msg text,
	timestamp timestamp,
	PRIMARY KEY ((day), id)
) WITH CLUSTERING ORDER BY (id DESC)`

func ensureAuditSchema(session *gocql.Session) error {
	if err := session.Query(auditTableCQL).Exec(); err != nil {
		return fmt.Errorf("create audit_logs: %w", err)
	}
	return nil
}
