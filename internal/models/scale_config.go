package models

import "time"

// ScaleConfig describes a serial weighing scale. The service only stores and
// validates it; reading the port happens on the till.
type ScaleConfig struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;unique"`
	Port        string `gorm:"size:50;not null"` // COM3, /dev/ttyUSB0
	BaudRate    int    `gorm:"not null;default:9600"`
	DataBits    int    `gorm:"not null;default:8"`
	Parity      string `gorm:"size:10;not null;default:'none'"` // none|odd|even|mark|space
	StopBits    string `gorm:"size:5;not null;default:'1'"`     // 1|1.5|2
	Handshake   string `gorm:"size:20;not null;default:'none'"` // none|xonxoff|rts|rtsxonxoff
	Command     string `gorm:"size:20"`                         // petición enviada a la báscula, ej. "P"
	WeightRegex string `gorm:"size:200;not null"`
	ReadTimeout int    `gorm:"not null;default:500"` // ms
	Active      bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
