package simulation

import "strconv"

// Stage is a named point in the insurance workflow graph.
type Stage int

// Workflow stages. The order is the order in which they appear in the graph
// and has no other meaning.
const (
	Start Stage = iota
	IngresarTramite
	RegistrarPO
	DevolucionBrockerRevision
	EnviarEmision
	RegistroCompromiso
	EnviarRevisionSuscripcion
	ValidarInfoEnviada
	DevolucionComercialDesdeValidacion
	RevisionSuscripcion
	DevolucionDesdeSuscripcion
	EnviarSuscripcionLocal
	DeclinarSuscripcion
	AprobarSuscripcionLocal
	EnviarRespuestaComercial
	RechazarBrocker
	DeclinarBrocker
	AceptarBrocker
	Visado
	DevolucionComercialDesdeVisado
	RevisionEmision
	DevolucionComercialDesdeEmision
	DevolucionVisadoDesdeEmision
	ControlCalidadDocumental
	DevolucionEmisionControlCalidad
	IniciarFacturacion
	GenerarFactura
	ContabilizarFactura
	GenerarPoliza
	EnviarFacturaElectronica
	RespuestaSRI
	EnviarPolizaElectronica
	FirmaPolizaElectronica
	FinalizarEnvioPolizaFactura
	DevolucionEmisionCorregir
	DevolucionComercialCorregir
	FinalizarProcesoEmision
	RecepcionPago

	stageCount
)

var stageNames = [stageCount]string{
	Start:                              "Start",
	IngresarTramite:                    "IngresarTramite",
	RegistrarPO:                        "RegistrarPO",
	DevolucionBrockerRevision:          "DevolucionBrockerRevision",
	EnviarEmision:                      "EnviarEmision",
	RegistroCompromiso:                 "RegistroCompromiso",
	EnviarRevisionSuscripcion:          "EnviarRevisionSuscripcion",
	ValidarInfoEnviada:                 "ValidarInfoEnviada",
	DevolucionComercialDesdeValidacion: "DevolucionComercialDesdeValidacion",
	RevisionSuscripcion:                "RevisionSuscripcion",
	DevolucionDesdeSuscripcion:         "DevolucionDesdeSuscripcion",
	EnviarSuscripcionLocal:             "EnviarSuscripcionLocal",
	DeclinarSuscripcion:                "DeclinarSuscripcion",
	AprobarSuscripcionLocal:            "AprobarSuscripcionLocal",
	EnviarRespuestaComercial:           "EnviarRespuestaComercial",
	RechazarBrocker:                    "RechazarBrocker",
	DeclinarBrocker:                    "DeclinarBrocker",
	AceptarBrocker:                     "AceptarBrocker",
	Visado:                             "Visado",
	DevolucionComercialDesdeVisado:     "DevolucionComercialDesdeVisado",
	RevisionEmision:                    "RevisionEmision",
	DevolucionComercialDesdeEmision:    "DevolucionComercialDesdeEmision",
	DevolucionVisadoDesdeEmision:       "DevolucionVisadoDesdeEmision",
	ControlCalidadDocumental:           "ControlCalidadDocumental",
	DevolucionEmisionControlCalidad:    "DevolucionEmisionControlCalidad",
	IniciarFacturacion:                 "IniciarFacturacion",
	GenerarFactura:                     "GenerarFactura",
	ContabilizarFactura:                "ContabilizarFactura",
	GenerarPoliza:                      "GenerarPoliza",
	EnviarFacturaElectronica:           "EnviarFacturaElectronica",
	RespuestaSRI:                       "RespuestaSRI",
	EnviarPolizaElectronica:            "EnviarPolizaElectronica",
	FirmaPolizaElectronica:             "FirmaPolizaElectronica",
	FinalizarEnvioPolizaFactura:        "FinalizarEnvioPolizaFactura",
	DevolucionEmisionCorregir:          "DevolucionEmisionCorregir",
	DevolucionComercialCorregir:        "DevolucionComercialCorregir",
	FinalizarProcesoEmision:            "FinalizarProcesoEmision",
	RecepcionPago:                      "RecepcionPago",
}

// stageLabels are the business-facing descriptions shown in diagrams.
var stageLabels = [stageCount]string{
	Start:                              "Inicio",
	IngresarTramite:                    "Ingresar tramite",
	RegistrarPO:                        "Registrar PO",
	DevolucionBrockerRevision:          "Devolucion al brocker del caso (Revision Brocker)",
	EnviarEmision:                      "Enviar a emision",
	RegistroCompromiso:                 "Registro de compromiso",
	EnviarRevisionSuscripcion:          "Enviar a Revisión suscripción",
	ValidarInfoEnviada:                 "Validar info enviada",
	DevolucionComercialDesdeValidacion: "Devolver caso a Comercial",
	RevisionSuscripcion:                "Revisión en suscripción",
	DevolucionDesdeSuscripcion:         "Realizar devolucion desde suscripcion",
	EnviarSuscripcionLocal:             "Enviar a suscripcion local",
	DeclinarSuscripcion:                "Declinar solicitud en suscripcion",
	AprobarSuscripcionLocal:            "Aprobar solicitud en suscripcion local",
	EnviarRespuestaComercial:           "Enviar respuesta al area comercial",
	RechazarBrocker:                    "Rechazar (perdida) por parte del Brocker",
	DeclinarBrocker:                    "Declinar por parte del Brocker",
	AceptarBrocker:                     "Aceptar (ganado) por parte del Brocker",
	Visado:                             "Visado",
	DevolucionComercialDesdeVisado:     "Devolucion a comercial desde visado",
	RevisionEmision:                    "Revisión en emisión",
	DevolucionComercialDesdeEmision:    "Devolucion a comercial desde emisión",
	DevolucionVisadoDesdeEmision:       "Devolucion a visado desde emisión",
	ControlCalidadDocumental:           "Control de calidad documental",
	DevolucionEmisionControlCalidad:    "Devolucion a emision de control de calidad",
	IniciarFacturacion:                 "Iniciar facturación",
	GenerarFactura:                     "Generar Factura",
	ContabilizarFactura:                "Contabilizar Factura",
	GenerarPoliza:                      "Generar poliza",
	EnviarFacturaElectronica:           "Enviar factura electronica",
	RespuestaSRI:                       "Respuesta SRI",
	EnviarPolizaElectronica:            "Enviar poliza electronica",
	FirmaPolizaElectronica:             "Firma poliza electronica por parte del cliente",
	FinalizarEnvioPolizaFactura:        "Finalizar envio poliza y factura al cliente",
	DevolucionEmisionCorregir:          "Devolucion a emision para corregir",
	DevolucionComercialCorregir:        "Devolucion a comercial para corregir",
	FinalizarProcesoEmision:            "Finalizar proceso de emision",
	RecepcionPago:                      "Recepcion pago",
}

var stagesByName = func() map[string]Stage {
	m := make(map[string]Stage, stageCount)
	for s := Stage(0); s < stageCount; s++ {
		m[stageNames[s]] = s
	}
	return m
}()

// String returns the stage identifier recorded as the activity name.
func (s Stage) String() string {
	if !s.Valid() {
		return "Stage(" + strconv.Itoa(int(s)) + ")"
	}
	return stageNames[s]
}

// Label returns the business-facing description of the stage.
func (s Stage) Label() string {
	if !s.Valid() {
		return s.String()
	}
	return stageLabels[s]
}

// Valid reports whether s is a defined stage.
func (s Stage) Valid() bool {
	return s >= 0 && s < stageCount
}

// ParseStage looks a stage up by its identifier.
func ParseStage(name string) (Stage, bool) {
	s, ok := stagesByName[name]
	return s, ok
}

// Stages returns every stage in declaration order.
func Stages() []Stage {
	out := make([]Stage, 0, stageCount)
	for s := Stage(0); s < stageCount; s++ {
		out = append(out, s)
	}
	return out
}
