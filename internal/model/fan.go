package model

import "time"

// Fan 粉丝关系（B 的粉丝是 A）冗余自 Follow
// FanLocal 冗余粉丝本地性，本地分发查询不必回表 accounts
type Fan struct {
    ID       string    `gorm:"primaryKey;type:varchar(36)"`
    UserID   string    `gorm:"type:varchar(36);index:idx_fan_user;index:idx_fan_pair,unique;not null"`
    FanID    string    `gorm:"type:varchar(36);not null;index:idx_fan_pair,unique"`
    FanLocal bool      `gorm:"index:idx_fan_user_local"`
    CreatedAt time.Time
    UpdatedAt time.Time
}

func (Fan) TableName() string { return "fans" }
