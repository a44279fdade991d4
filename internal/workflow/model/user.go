package model

import "github.com/google/uuid"

// User is a member of the marketing team. ManagerID forms a reporting tree
// and must never cycle; Position doubles as the role matched against a
// block's Role when no specific user is assigned.
type User struct {
	BaseModel
	Name      string     `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Email     string     `gorm:"type:varchar(255);column:email;not null;uniqueIndex" json:"email"`
	Position  string     `gorm:"type:varchar(100);column:position;not null" json:"position"`
	Whatsapp  string     `gorm:"type:varchar(50);column:whatsapp" json:"whatsapp,omitempty"`
	ManagerID *uuid.UUID `gorm:"type:uuid;column:manager_id" json:"managerId,omitempty"`
	Avatar    string     `gorm:"type:text;column:avatar" json:"avatar,omitempty"`
}

func (u *User) TableName() string {
	return "users"
}
