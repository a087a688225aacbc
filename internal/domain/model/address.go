package model

import "strings"

// 配送先。ユーザーのプロフィールと注文の両方に埋め込む値型
type Address struct {
	//宛名
	FullName string `gorm:"type:varchar(255)" json:"fullName"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	//番地など
	Address string `gorm:"type:varchar(255)" json:"address"`

	City    string `gorm:"type:varchar(255)" json:"city"`
	State   string `gorm:"type:varchar(100)" json:"state"`
	Pincode string `gorm:"type:varchar(20)" json:"pincode"`
}

// 前後の空白を落とす
func (a Address) Normalize() Address {
	return Address{
		FullName: strings.TrimSpace(a.FullName),
		Phone:    strings.TrimSpace(a.Phone),
		Address:  strings.TrimSpace(a.Address),
		City:     strings.TrimSpace(a.City),
		State:    strings.TrimSpace(a.State),
		Pincode:  strings.TrimSpace(a.Pincode),
	}
}

func (a Address) IsZero() bool {
	return a.Normalize() == Address{}
}
