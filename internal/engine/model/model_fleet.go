// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

type Vehicle struct {
	BaseModel
	VehicleId string `gorm:"column:vehicle_id;size:64;uniqueIndex" json:"vehicleId"`
	Owner
	Plate          string `gorm:"column:plate;size:32;index" json:"plate"`
	Make           string `gorm:"column:make" json:"make"`
	Model          string `gorm:"column:model" json:"model"`
	Vin            string `gorm:"column:vin" json:"vin"`
	MaxHorses      int    `gorm:"column:max_horses" json:"maxHorses"`
	ApprovalNumber string `gorm:"column:approval_number" json:"approvalNumber"` // transport approval, type 1/2
}

func (Vehicle) TableName() string {
	return "t_vehicle"
}

type Horse struct {
	BaseModel
	HorseId string `gorm:"column:horse_id;size:64;uniqueIndex" json:"horseId"`
	Owner
	Name      string `gorm:"column:name" json:"name"`
	Ueln      string `gorm:"column:ueln;size:15" json:"ueln"` // passport number
	Breed     string `gorm:"column:breed" json:"breed"`
	BirthYear int    `gorm:"column:birth_year" json:"birthYear"`
	Microchip string `gorm:"column:microchip" json:"microchip"`
}

func (Horse) TableName() string {
	return "t_horse"
}
