package model

import "fmt"

// UserAssociation represents a row in the cluster-specific assoc table
// (<cluster>_assoc_table). Rows with user='' are account nodes; rows with a
// non-empty user are user memberships under an account.
type UserAssociation struct {
	CreationTime  uint64 `gorm:"column:creation_time" json:"creation_time"`
	ModTime       uint64 `gorm:"column:mod_time" json:"mod_time"`
	Deleted       int8   `gorm:"column:deleted" json:"deleted"`
	IDAssoc       uint32 `gorm:"column:id_assoc;primaryKey;autoIncrement" json:"id_assoc"`
	Acct          string `gorm:"column:acct" json:"acct"`
	User          string `gorm:"column:user" json:"user"`
	Partition     string `gorm:"column:partition" json:"partition"`
	Shares        int32  `gorm:"column:shares" json:"shares"`
	GrpTres       string `gorm:"column:grp_tres" json:"grp_tres"`
	GrpTresMins   string `gorm:"column:grp_tres_mins" json:"grp_tres_mins"`
	MaxTresMinsPJ string `gorm:"column:max_tres_mins_pj" json:"max_tres_mins_pj"`
	Qos           string `gorm:"column:qos" json:"qos"`
}

// AssocTableName returns the cluster-specific association table name.
func AssocTableName(cluster string) string {
	return fmt.Sprintf("%s_assoc_table", cluster)
}
