package store

import (
	"spidertrigger/internal/spider"
	"time"
)

// spiderModel is the persisted form of spider.Spider.
// Environment is kept space-delimited.
type spiderModel struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement"`
	Name                 string    `gorm:"size:255;not null"`
	Type                 string    `gorm:"size:255;not null"`
	Enabled              bool      `gorm:"not null"`
	Registry             string    `gorm:"size:255"`
	Repository           string    `gorm:"size:255;not null"`
	Tag                  string    `gorm:"size:255;not null"`
	Environment          string    `gorm:"type:text"`
	Cron                 string    `gorm:"size:255"`
	CreationTime         time.Time `gorm:"autoCreateTime"`
	LastModificationTime time.Time `gorm:"autoUpdateTime"`
}

func (spiderModel) TableName() string { return "spiders" }

func (m *spiderModel) toSpider() *spider.Spider {
	return &spider.Spider{
		ID:                   m.ID,
		Name:                 m.Name,
		Type:                 m.Type,
		Enabled:              m.Enabled,
		Registry:             m.Registry,
		Repository:           m.Repository,
		Tag:                  m.Tag,
		Environment:          spider.ParseEnvironment(m.Environment),
		Cron:                 m.Cron,
		CreationTime:         m.CreationTime,
		LastModificationTime: m.LastModificationTime,
	}
}

func fromSpider(sp *spider.Spider) *spiderModel {
	return &spiderModel{
		ID:          sp.ID,
		Name:        sp.Name,
		Type:        sp.Type,
		Enabled:     sp.Enabled,
		Registry:    sp.Registry,
		Repository:  sp.Repository,
		Tag:         sp.Tag,
		Environment: spider.FormatEnvironment(sp.Environment),
		Cron:        sp.Cron,
	}
}

// containerModel is the persisted form of spider.ContainerRecord.
type containerModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	ContainerID  string    `gorm:"size:128;not null;index"`
	Batch        string    `gorm:"size:32;not null;uniqueIndex"`
	SpiderID     int64     `gorm:"not null;index"`
	Status       string    `gorm:"size:16;not null;index"`
	CreationTime time.Time `gorm:"not null"`
}

func (containerModel) TableName() string { return "spider_containers" }

func (m *containerModel) toRecord() spider.ContainerRecord {
	return spider.ContainerRecord{
		ID:           spider.RecordID(m.ID),
		ContainerID:  m.ContainerID,
		Batch:        m.Batch,
		SpiderID:     m.SpiderID,
		Status:       spider.Status(m.Status),
		CreationTime: m.CreationTime,
	}
}
