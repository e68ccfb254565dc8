package simulation

import (
	"fmt"
	"strings"

	"github.com/Ofi-Services/unified-backend/internal/random"
	"github.com/Ofi-Services/unified-backend/model"
)

// Outcome classifies how a case ended.
type Outcome int

// Case outcomes.
const (
	OutcomeNone Outcome = iota
	OutcomeApproved
	OutcomeDeclinedByCompany
	OutcomeDeclinedByBroker
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeDeclinedByCompany:
		return "declined_by_company"
	case OutcomeDeclinedByBroker:
		return "declined_by_broker"
	default:
		return "none"
	}
}

// Edge is one weighted outgoing transition. Percent weights of a node's edges
// sum to 100.
type Edge struct {
	To      Stage
	Percent int
}

// Node is the behavior attached to a stage.
type Node struct {
	// Edges are tried in order against a single roll in [1,100]. A node
	// without edges is terminal; a node with one edge draws nothing.
	Edges []Edge

	// ReturnTo is the stage a return stage sends the case back to. When set,
	// a Rework is recorded against the return activity before ReturnTo is
	// re-entered.
	ReturnTo Stage
	Returns  bool

	// Automatic marks steps performed by the system rather than a person.
	Automatic bool
	// Bills marks the stage at which billing periods are emitted.
	Bills bool
	// Outcome is set on terminal stages.
	Outcome Outcome
}

// Terminal reports whether the node ends the case.
func (n Node) Terminal() bool { return len(n.Edges) == 0 }

// Graph is the explicit transition table of the insurance workflow.
type Graph struct {
	nodes [stageCount]Node
	entry map[model.WorkflowType]Stage
}

// Node returns the behavior of s.
func (g *Graph) Node(s Stage) Node {
	if !s.Valid() {
		return Node{}
	}
	return g.nodes[s]
}

// Entry returns the first stage after Start for a workflow type.
func (g *Graph) Entry(t model.WorkflowType) (Stage, bool) {
	s, ok := g.entry[t]
	return s, ok
}

// Next draws the successor of s. It returns false when s is terminal.
// Single-edge stages consume no randomness.
func (g *Graph) Next(src random.Source, s Stage) (Stage, bool) {
	node := g.Node(s)
	switch len(node.Edges) {
	case 0:
		return s, false
	case 1:
		return node.Edges[0].To, true
	}

	roll := random.Percent(src)
	cumulative := 0
	for _, e := range node.Edges {
		cumulative += e.Percent
		if roll <= cumulative {
			return e.To, true
		}
	}
	return node.Edges[len(node.Edges)-1].To, true
}

// Validate checks the table for weights that do not sum to 100, return stages
// that do not lead back to their target, and stages unreachable from Start.
func (g *Graph) Validate() error {
	var errs []string

	for _, s := range Stages() {
		node := g.nodes[s]
		if s == Start {
			continue
		}
		if len(node.Edges) > 1 {
			total := 0
			for _, e := range node.Edges {
				total += e.Percent
			}
			if total != 100 {
				errs = append(errs, fmt.Sprintf("%s: edge weights sum to %d", s, total))
			}
		}
		if node.Returns && (len(node.Edges) != 1 || node.Edges[0].To != node.ReturnTo) {
			errs = append(errs, fmt.Sprintf("%s: return stage must lead only to %s", s, node.ReturnTo))
		}
		if node.Terminal() && node.Outcome == OutcomeNone {
			errs = append(errs, fmt.Sprintf("%s: terminal stage has no outcome", s))
		}
	}

	for _, t := range model.WorkflowTypes {
		if _, ok := g.entry[t]; !ok {
			errs = append(errs, fmt.Sprintf("no entry stage for workflow type %q", t))
		}
	}

	reached := g.reachable()
	for _, s := range Stages() {
		if !reached[s] {
			errs = append(errs, fmt.Sprintf("%s: unreachable", s))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid workflow graph: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (g *Graph) reachable() map[Stage]bool {
	seen := map[Stage]bool{Start: true}
	queue := make([]Stage, 0, stageCount)
	for _, t := range model.WorkflowTypes {
		if s, ok := g.entry[t]; ok && !seen[s] {
			seen[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, e := range g.nodes[s].Edges {
			if !seen[e.To] {
				seen[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return seen
}

// DefaultGraph returns the insurance onboarding, renewal and issuance
// workflow.
func DefaultGraph() *Graph {
	g := &Graph{
		entry: map[model.WorkflowType]Stage{
			model.WorkflowPolicyOnboarding: IngresarTramite,
			model.WorkflowRenewal:          RegistroCompromiso,
			model.WorkflowIssuance:         RegistroCompromiso,
		},
	}

	to := func(s Stage) []Edge { return []Edge{{To: s, Percent: 100}} }
	ret := func(target Stage) Node {
		return Node{Edges: to(target), ReturnTo: target, Returns: true}
	}

	// Onboarding.
	g.nodes[IngresarTramite] = Node{Edges: to(RegistrarPO)}
	g.nodes[RegistrarPO] = Node{Edges: []Edge{
		{DevolucionBrockerRevision, 10},
		{EnviarEmision, 90},
	}}
	g.nodes[DevolucionBrockerRevision] = ret(RegistrarPO)
	g.nodes[EnviarEmision] = Node{Edges: to(RevisionEmision)}

	// Renewal and issuance.
	g.nodes[RegistroCompromiso] = Node{Edges: to(EnviarRevisionSuscripcion)}
	g.nodes[EnviarRevisionSuscripcion] = Node{Edges: []Edge{
		{ValidarInfoEnviada, 50},
		{RevisionSuscripcion, 50},
	}}
	g.nodes[ValidarInfoEnviada] = Node{Edges: []Edge{
		{DevolucionComercialDesdeValidacion, 10},
		{RevisionSuscripcion, 90},
	}}
	g.nodes[DevolucionComercialDesdeValidacion] = ret(EnviarRevisionSuscripcion)

	// Subscription.
	g.nodes[RevisionSuscripcion] = Node{Edges: []Edge{
		{DevolucionDesdeSuscripcion, 10},
		{EnviarSuscripcionLocal, 90},
	}}
	g.nodes[DevolucionDesdeSuscripcion] = ret(EnviarRevisionSuscripcion)
	g.nodes[EnviarSuscripcionLocal] = Node{Edges: []Edge{
		{DeclinarSuscripcion, 10},
		{AprobarSuscripcionLocal, 90},
	}}
	g.nodes[DeclinarSuscripcion] = Node{Outcome: OutcomeDeclinedByCompany}
	g.nodes[AprobarSuscripcionLocal] = Node{Edges: to(EnviarRespuestaComercial)}
	g.nodes[EnviarRespuestaComercial] = Node{Edges: []Edge{
		{RechazarBrocker, 33},
		{DeclinarBrocker, 33},
		{AceptarBrocker, 34},
	}}
	g.nodes[RechazarBrocker] = Node{Outcome: OutcomeDeclinedByBroker}
	g.nodes[DeclinarBrocker] = Node{Outcome: OutcomeDeclinedByBroker}
	g.nodes[AceptarBrocker] = Node{Edges: to(Visado)}

	// Visado and emission review.
	g.nodes[Visado] = Node{Edges: []Edge{
		{DevolucionComercialDesdeVisado, 10},
		{RevisionEmision, 90},
	}}
	g.nodes[DevolucionComercialDesdeVisado] = ret(Visado)
	g.nodes[RevisionEmision] = Node{Edges: []Edge{
		{DevolucionComercialDesdeEmision, 10},
		{DevolucionVisadoDesdeEmision, 10},
		{ControlCalidadDocumental, 30},
		{IniciarFacturacion, 50},
	}}
	g.nodes[DevolucionComercialDesdeEmision] = ret(RevisionEmision)
	g.nodes[DevolucionVisadoDesdeEmision] = ret(Visado)
	g.nodes[ControlCalidadDocumental] = Node{Edges: to(DevolucionEmisionControlCalidad)}
	g.nodes[DevolucionEmisionControlCalidad] = Node{Edges: to(IniciarFacturacion)}

	// Billing chain.
	g.nodes[IniciarFacturacion] = Node{Edges: to(GenerarFactura), Automatic: true}
	g.nodes[GenerarFactura] = Node{Edges: to(ContabilizarFactura), Automatic: true, Bills: true}
	g.nodes[ContabilizarFactura] = Node{Edges: to(GenerarPoliza), Automatic: true}
	g.nodes[GenerarPoliza] = Node{Edges: to(EnviarFacturaElectronica), Automatic: true}
	g.nodes[EnviarFacturaElectronica] = Node{Edges: to(RespuestaSRI), Automatic: true}
	g.nodes[RespuestaSRI] = Node{Edges: to(EnviarPolizaElectronica), Automatic: true}
	g.nodes[EnviarPolizaElectronica] = Node{Edges: to(FirmaPolizaElectronica), Automatic: true}
	g.nodes[FirmaPolizaElectronica] = Node{Edges: to(FinalizarEnvioPolizaFactura)}

	// Finalization.
	g.nodes[FinalizarEnvioPolizaFactura] = Node{Edges: []Edge{
		{FinalizarProcesoEmision, 80},
		{DevolucionEmisionCorregir, 10},
		{DevolucionComercialCorregir, 10},
	}}
	g.nodes[DevolucionEmisionCorregir] = ret(FinalizarEnvioPolizaFactura)
	g.nodes[DevolucionComercialCorregir] = ret(FinalizarEnvioPolizaFactura)
	g.nodes[FinalizarProcesoEmision] = Node{Edges: to(RecepcionPago)}
	g.nodes[RecepcionPago] = Node{Outcome: OutcomeApproved}

	return g
}
