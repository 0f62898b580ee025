// Package services contains the core business logic of Folio.
// Services implement driving ports and depend on driven ports,
// keeping business rules independent of adapters.
package services
