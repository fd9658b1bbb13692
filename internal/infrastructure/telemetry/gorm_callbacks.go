package telemetry

import "gorm.io/gorm"

type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// gormOperation addresses the before and after slots of one GORM callback chain
type gormOperation struct {
	name   string
	before func(db *gorm.DB) callbackRegistrar
	after  func(db *gorm.DB) callbackRegistrar
}

var gormOperations = []gormOperation{
	{
		name:   "create",
		before: func(db *gorm.DB) callbackRegistrar { return db.Callback().Create().Before("gorm:create") },
		after:  func(db *gorm.DB) callbackRegistrar { return db.Callback().Create().After("gorm:create") },
	},
	{
		name:   "query",
		before: func(db *gorm.DB) callbackRegistrar { return db.Callback().Query().Before("gorm:query") },
		after:  func(db *gorm.DB) callbackRegistrar { return db.Callback().Query().After("gorm:query") },
	},
	{
		name:   "update",
		before: func(db *gorm.DB) callbackRegistrar { return db.Callback().Update().Before("gorm:update") },
		after:  func(db *gorm.DB) callbackRegistrar { return db.Callback().Update().After("gorm:update") },
	},
	{
		name:   "delete",
		before: func(db *gorm.DB) callbackRegistrar { return db.Callback().Delete().Before("gorm:delete") },
		after:  func(db *gorm.DB) callbackRegistrar { return db.Callback().Delete().After("gorm:delete") },
	},
	{
		name:   "row",
		before: func(db *gorm.DB) callbackRegistrar { return db.Callback().Row().Before("gorm:row") },
		after:  func(db *gorm.DB) callbackRegistrar { return db.Callback().Row().After("gorm:row") },
	},
	{
		name:   "raw",
		before: func(db *gorm.DB) callbackRegistrar { return db.Callback().Raw().Before("gorm:raw") },
		after:  func(db *gorm.DB) callbackRegistrar { return db.Callback().Raw().After("gorm:raw") },
	},
}

// registerAround installs before and after callbacks on every operation chain.
// Callback names are prefix:before_<op> and prefix:after_<op>.
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(op string) func(*gorm.DB)) error {
	for _, op := range gormOperations {
		if err := op.before(db).Register(prefix+":before_"+op.name, before); err != nil {
			return err
		}
		if err := op.after(db).Register(prefix+":after_"+op.name, after(op.name)); err != nil {
			return err
		}
	}
	return nil
}
