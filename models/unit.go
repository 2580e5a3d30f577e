package models

// Unit is a clinic location belonging to a company (tenant).
type Unit struct {
	ID          int64  `gorm:"primaryKey"`
	CompanyID   int64  `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Street      string
	Number      string
	District    string
	State       string `gorm:"type:varchar(2)"`
	FullAddress string // pre-joined address, preferred over the parts when set

	Appointments []Appointment `gorm:"foreignKey:UnitID"`
}
