package model

// LocationModel 地图节点（位置目录）
type LocationModel struct {
	NodeID    string `gorm:"primaryKey;column:node_id;type:varchar(64)" json:"node_id" yaml:"node_id"`
	LongName  string `gorm:"type:varchar(255);not null;index" json:"long_name" yaml:"long_name"`
	ShortName string `gorm:"type:varchar(64)" json:"short_name" yaml:"short_name"`
	Floor     string `gorm:"type:varchar(8)" json:"floor" yaml:"floor"`
	Building  string `gorm:"type:varchar(64)" json:"building" yaml:"building"`
	NodeType  string `gorm:"type:varchar(8)" json:"node_type" yaml:"node_type"`
	XCoord    int    `json:"xcoord" yaml:"xcoord"`
	YCoord    int    `json:"ycoord" yaml:"ycoord"`
}

// TableName 指定表名
func (LocationModel) TableName() string {
	return "nodes"
}
