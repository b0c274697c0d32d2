package model

// Qos mirrors the subset of slurmdbd's qos_table the accounting listings
// surface: identity columns, the TRES limit strings managed through sacctmgr
// and the scheduling weights. The table carries many more per-job columns;
// gorm selects only the fields declared here.
type Qos struct {
	CreationTime          uint64  `gorm:"column:creation_time" json:"creation_time"`
	ModTime               uint64  `gorm:"column:mod_time" json:"mod_time"`
	Deleted               int8    `gorm:"column:deleted" json:"deleted"`
	ID                    int32   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name                  string  `gorm:"column:name;unique" json:"name"`
	Description           string  `gorm:"column:description" json:"description"`
	Flags                 uint32  `gorm:"column:flags" json:"flags"`
	GraceTime             uint32  `gorm:"column:grace_time" json:"grace_time"`
	MaxTresMinsPJ         string  `gorm:"column:max_tres_mins_pj" json:"max_tres_mins_pj"`
	MaxWallDurationPerJob int32   `gorm:"column:max_wall_duration_per_job" json:"max_wall_duration_per_job"`
	GrpTres               string  `gorm:"column:grp_tres" json:"grp_tres"`
	GrpTresMins           string  `gorm:"column:grp_tres_mins" json:"grp_tres_mins"`
	GrpWall               int32   `gorm:"column:grp_wall" json:"grp_wall"`
	Preempt               string  `gorm:"column:preempt" json:"preempt"`
	PreemptMode           int32   `gorm:"column:preempt_mode" json:"preempt_mode"`
	Priority              uint32  `gorm:"column:priority" json:"priority"`
	UsageFactor           float64 `gorm:"column:usage_factor" json:"usage_factor"`
}

// Qoses is a slice of Qos.
type Qoses []Qos

// TableName implements gorm's tabler interface.
func (Qos) TableName() string { return "qos_table" }
