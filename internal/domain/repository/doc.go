// Package repository define los contratos de almacenamiento que consume el
// núcleo de autenticación, independientes del driver concreto.
//
//	┌───────────────────────────────────────────────┐
//	│   auth/grants · auth/refresh · auth/claims    │
//	└───────────────────────────────────────────────┘
//	                      │
//	                      ▼
//	┌───────────────────────────────────────────────┐
//	│        domain/repository (interfaces)         │
//	│ Principal · RBAC · Token · Audit repositories │
//	└───────────────────────────────────────────────┘
//	                      │
//	          ┌───────────┴───────────┐
//	          ▼                       ▼
//	   ┌─────────────┐         ┌─────────────┐
//	   │ store/memory│         │  store/pg   │
//	   └─────────────┘         └─────────────┘
//
// Convenciones:
//   - Context siempre primero; TenantID explícito donde aplica.
//   - Nada acá lee estado ambiente (usuario actual, tenant actual).
//   - Errores de dominio en errors.go.
package repository
