package api

import "time"

// TokenPair is the payload issued by the token obtain endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Usuario mirrors the backend user serializer.
type Usuario struct {
	ID               int    `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Rol              string `json:"rol"`
	Telefono         string `json:"telefono"`
	NumeroResidencia string `json:"numero_residencia"`
	DateJoined       string `json:"date_joined,omitempty"`
}

// RegistroUsuario is the payload for the admin-only registration endpoint.
// The backend validates that both password fields match.
type RegistroUsuario struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	Password2        string `json:"password2"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Rol              string `json:"rol"`
	Telefono         string `json:"telefono,omitempty"`
	NumeroResidencia string `json:"numero_residencia,omitempty"`
}

// ActualizacionUsuario is the payload accepted by the user update endpoint.
type ActualizacionUsuario struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Telefono         string `json:"telefono,omitempty"`
	NumeroResidencia string `json:"numero_residencia,omitempty"`
}

// Notificacion mirrors the backend notification serializer.
type Notificacion struct {
	ID             int       `json:"id"`
	Usuario        *int      `json:"usuario"`
	Tipo           string    `json:"tipo"`
	Titulo         string    `json:"titulo"`
	Mensaje        string    `json:"mensaje"`
	FechaCreacion  time.Time `json:"fecha_creacion"`
	Leida          bool      `json:"leida"`
	ObjetoID       *int      `json:"objeto_id"`
	ObjetoTipo     string    `json:"objeto_tipo"`
	TiempoRelativo string    `json:"tiempo_relativo"`
}

// GastoComun mirrors the backend common expense serializer. Monetary amounts
// arrive as decimal strings and are never computed with locally.
type GastoComun struct {
	ID               int        `json:"id"`
	Residente        int        `json:"residente"`
	Concepto         string     `json:"concepto"`
	Descripcion      string     `json:"descripcion"`
	Monto            string     `json:"monto"`
	Estado           string     `json:"estado"`
	FechaEmision     string     `json:"fecha_emision"`
	FechaVencimiento string     `json:"fecha_vencimiento"`
	FechaPago        *time.Time `json:"fecha_pago"`
}

// NuevoGastoComun is the admin-only creation payload.
type NuevoGastoComun struct {
	Residente        int    `json:"residente"`
	Concepto         string `json:"concepto"`
	Descripcion      string `json:"descripcion"`
	Monto            string `json:"monto"`
	FechaVencimiento string `json:"fecha_vencimiento"`
}

// Multa mirrors the backend fine serializer.
type Multa struct {
	ID            int        `json:"id"`
	Residente     int        `json:"residente"`
	Motivo        string     `json:"motivo"`
	Descripcion   string     `json:"descripcion"`
	Precio        string     `json:"precio"`
	Estado        string     `json:"estado"`
	FechaCreacion time.Time  `json:"fecha_creacion"`
	FechaPago     *time.Time `json:"fecha_pago"`
}

// NuevaMulta is the admin-only creation payload.
type NuevaMulta struct {
	Residente   int    `json:"residente"`
	Motivo      string `json:"motivo"`
	Descripcion string `json:"descripcion"`
	Precio      string `json:"precio"`
}

// EstadisticasGastos is the pre-aggregated expense statistics payload.
type EstadisticasGastos struct {
	TotalGastos     int     `json:"total_gastos"`
	TotalPendientes int     `json:"total_pendientes"`
	TotalPagados    int     `json:"total_pagados"`
	MontoPendiente  float64 `json:"monto_pendiente"`
	MontoPagado     float64 `json:"monto_pagado"`
}

// EstadisticasMultas is the pre-aggregated fine statistics payload.
type EstadisticasMultas struct {
	TotalMultas     int     `json:"total_multas"`
	TotalPendientes int     `json:"total_pendientes"`
	TotalPagadas    int     `json:"total_pagadas"`
	TotalAnuladas   int     `json:"total_anuladas"`
	MontoPendiente  float64 `json:"monto_pendiente"`
	MontoPagado     float64 `json:"monto_pagado"`
}
