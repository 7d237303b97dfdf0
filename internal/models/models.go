package models

// All returns the model list for AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&Shop{},
		&Customer{},
		&Boot{},
		&WorkOrder{},
		&Equipment{},
		&WorkOrderItem{},
		&WorkOrderNote{},
		&AgreementTemplate{},
		&SignedAgreement{},
		&Settings{},
		&SystemLog{},
	}
}
