package slurmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"spard/config"
	"spard/internal/pkg/model"
)

// Client wraps a read-only GORM connection to the slurmdbd MySQL database.
// The agent only ever reads here; all mutations go through sacctmgr.
type Client struct {
	DB          *gorm.DB
	ClusterName string
	logger      *slog.Logger
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// New creates a read-only GORM Client configured from config.Slurmdb.
func New(cfg config.Slurmdb, logger *slog.Logger) (*Client, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("build dsn", "dsn", dsn)

	gcfg := &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Warn),
	}

	db, err := gorm.Open(mysql.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}

	// Tune the underlying connection pool
	if sqlDB, err := db.DB(); err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if d := parseDuration(cfg.ConnMaxLifetime); d > 0 {
			sqlDB.SetConnMaxLifetime(d)
		}
		// Proactive connectivity check with timeout to avoid hanging on unreachable DB
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}
	}

	// Enforce read-only at ORM layer
	enforceReadOnly(db)

	return &Client{DB: db, ClusterName: cfg.ClusterName, logger: logger}, nil
}

// buildDSN constructs a DSN string without importing the mysql driver package.
// Format: user:pass@tcp(host:port)/dbname?param=value
func buildDSN(cfg config.Slurmdb) (string, error) {
	creds := cfg.User
	if cfg.Password != "" {
		creds = fmt.Sprintf("%s:%s", cfg.User, cfg.Password)
	}

	addr := fmt.Sprintf("tcp(%s:%d)", cfg.Host, cfg.Port)

	params := make([]string, 0, 8)
	if cfg.Charset != "" {
		params = append(params, fmt.Sprintf("charset=%s", cfg.Charset))
	}
	if cfg.ParseTime {
		params = append(params, "parseTime=true")
	} else {
		params = append(params, "parseTime=false")
	}
	if cfg.Loc != "" {
		params = append(params, fmt.Sprintf("loc=%s", url.QueryEscape(cfg.Loc)))
	}
	if cfg.TLS != "" {
		params = append(params, fmt.Sprintf("tls=%s", cfg.TLS))
	}
	// Conservative timeouts to prevent hangs on connect/read/write
	params = append(params, "timeout=5s")
	params = append(params, "readTimeout=5s")
	params = append(params, "writeTimeout=5s")

	dsn := fmt.Sprintf("%s@%s/%s", creds, addr, cfg.Database)
	if len(params) > 0 {
		dsn = dsn + "?" + strings.Join(params, "&")
	}
	return dsn, nil
}

// parseDuration returns 0 on empty or invalid duration strings.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Package-level default Client for convenience wiring.
var defaultClient *Client

// SetDefault sets the package-level default SlurmDB Client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default SlurmDB Client.
func Default() *Client { return defaultClient }

// enforceReadOnly installs GORM callbacks that reject write operations and non-read raw SQL.
func enforceReadOnly(db *gorm.DB) {
	block := func(tx *gorm.DB) {
		tx.AddError(errors.New("slurmdb Client is read-only"))
	}
	_ = db.Callback().Create().Before("gorm:create").Register("spard:readonly_create", block)
	_ = db.Callback().Update().Before("gorm:update").Register("spard:readonly_update", block)
	_ = db.Callback().Delete().Before("gorm:delete").Register("spard:readonly_delete", block)

	_ = db.Callback().Raw().Before("gorm:raw").Register("spard:readonly_raw", func(tx *gorm.DB) {
		sql := strings.TrimSpace(tx.Statement.SQL.String())
		up := strings.ToUpper(sql)
		if strings.HasPrefix(up, "SELECT") || strings.HasPrefix(up, "SHOW") || strings.HasPrefix(up, "DESCRIBE") || strings.HasPrefix(up, "EXPLAIN") {
			return
		}
		tx.AddError(errors.New("read-only: raw SQL must be SELECT/SHOW/DESCRIBE/EXPLAIN"))
	})
}

// GetAcctsPaged queries acct_table with an optional deleted filter and pagination.
// Returns the paged accounts and total count before paging.
func (c *Client) GetAcctsPaged(ctx context.Context, deleted *int, offset, limit int) (model.Accounts, int64, error) {
	if c == nil || c.DB == nil {
		return nil, 0, fmt.Errorf("nil slurmdb Client")
	}
	base := c.DB.WithContext(ctx).Model(&model.Account{})
	if deleted != nil {
		base = base.Where("deleted = ?", *deleted)
	}
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var res model.Accounts
	q := base
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&res).Error; err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

// GetAcctByName returns a single account by name from acct_table with an optional deleted filter.
func (c *Client) GetAcctByName(ctx context.Context, name string, deleted *int) (*model.Account, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil slurmdb Client")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("account name is required")
	}
	var acct model.Account
	tx := c.DB.WithContext(ctx).Model(&model.Account{})
	if deleted != nil {
		tx = tx.Where("deleted = ?", *deleted)
	}
	if err := tx.Where("name = ?", name).First(&acct).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

// GetQos 获取 QoS, 若 id 为 -1 表示获取所有 QoS, 否则只获取指定 QoS 信息.
func (c *Client) GetQos(ctx context.Context, id int) (model.Qoses, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil slurmdb Client")
	}
	res := make(model.Qoses, 0)
	tx := c.DB.WithContext(ctx).Model(&model.Qos{}).Where("deleted = 0")
	if id != -1 {
		tx = tx.Where("id = ?", id)
	}
	if err := tx.Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// GetAccountAssociation returns the account node row (user='') for the given
// account from <ClusterName>_assoc_table: its current shares, limits and QoS.
func (c *Client) GetAccountAssociation(ctx context.Context, account string) (*model.UserAssociation, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil slurmdb Client")
	}
	if strings.TrimSpace(account) == "" {
		return nil, fmt.Errorf("account name is required")
	}
	if strings.TrimSpace(c.ClusterName) == "" {
		return nil, fmt.Errorf("cluster name is empty in slurmdb Client")
	}
	table := model.AssocTableName(c.ClusterName)
	var row model.UserAssociation
	if err := c.DB.WithContext(ctx).
		Table(table).
		Where("acct = ? AND deleted = 0 AND `user` = ''", account).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// GetUserNamesByAccount returns distinct user names that belong to the given
// account in the cluster-specific assoc table. Only non-deleted user nodes
// are returned; account nodes are excluded by requiring `user` non-empty.
func (c *Client) GetUserNamesByAccount(ctx context.Context, account string) ([]string, error) {
	if c == nil || c.DB == nil {
		return nil, fmt.Errorf("nil slurmdb Client")
	}
	if strings.TrimSpace(account) == "" {
		return nil, fmt.Errorf("account name is required")
	}
	if strings.TrimSpace(c.ClusterName) == "" {
		return nil, fmt.Errorf("cluster name is empty in slurmdb Client")
	}
	table := model.AssocTableName(c.ClusterName)

	var users []string
	tx := c.DB.WithContext(ctx).
		Table(table).
		Where("acct = ? AND `user` <> '' AND deleted = 0", account).
		Distinct().
		Pluck("`user`", &users)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return users, nil
}
