package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const (
	scenarioTypeName = "scenario"
	actorTypeName    = "actor"
)

// Scenario is an ordered list of marketplace steps.
type Scenario struct {
	Name string
	// Platform holds the settings an in-process market starts with.
	Platform map[string]any
	Steps    []Step
}

// Step is one scripted call or expectation.
type Step struct {
	Kind string
	Args map[string]any
}

type actor struct {
	scenario  *Scenario
	principal string
}

// LoadScenarioFromFile runs the Lua file at path and returns the Scenario it
// builds.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runScenarioChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

// LoadScenario runs Lua source and returns the Scenario it builds.
func LoadScenario(name, source string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadBuffer(state, source, name, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runScenarioChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = name
	}
	return scenario, nil
}

func newLuaState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)
	return state
}

func runScenarioChunk(state *lua.State) (*Scenario, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	registerMethods(state, scenarioTypeName, scenarioMethods)
	registerMethods(state, actorTypeName, actorMethods)

	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

func registerMethods(state *lua.State, typeName string, methods []lua.RegistryFunction) {
	lua.NewMetaTable(state, typeName)
	state.NewTable()
	lua.SetFunctions(state, methods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "actor", Function: scenarioActor},
	{Name: "advance", Function: scenarioAdvance},
	{Name: "expect_balance", Function: scenarioExpectBalance},
	{Name: "expect_platform_balance", Function: scenarioExpectPlatformBalance},
	{Name: "expect_session", Function: scenarioExpectSession},
	{Name: "expect_producer", Function: scenarioExpectProducer},
	{Name: "verify_journal", Function: scenarioVerifyJournal},
}

var actorMethods = []lua.RegistryFunction{
	{Name: "register", Function: actorStep("register")},
	{Name: "add_category", Function: actorStep("add_category")},
	{Name: "add_content", Function: actorStep("add_content")},
	{Name: "activate", Function: actorStep("activate")},
	{Name: "expect_content", Function: actorStep("expect_content")},
	{Name: "claim", Function: actorStep("claim")},
	{Name: "claim_platform", Function: actorStep("claim_platform")},
	{Name: "update_fee_rate", Function: actorStep("update_fee_rate")},
	{Name: "update_register_payment", Function: actorStep("update_register_payment")},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name, Platform: optionalTable(state, 2)}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

func scenarioActor(state *lua.State) int {
	scenario := checkScenario(state)
	principal := strings.TrimSpace(lua.CheckString(state, 2))
	if principal == "" {
		lua.Errorf(state, "actor principal is required")
		return 0
	}
	state.PushUserData(&actor{scenario: scenario, principal: principal})
	lua.SetMetaTableNamed(state, actorTypeName)
	return 1
}

func scenarioAdvance(state *lua.State) int {
	scenario := checkScenario(state)
	seconds := lua.CheckNumber(state, 2)
	if seconds < 0 {
		lua.ArgumentError(state, 2, "advance seconds must not be negative")
		return 0
	}
	appendStep(scenario, "advance", map[string]any{"seconds": normalizeNumber(seconds)})
	return 0
}

func scenarioExpectBalance(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if producer, _ := data["producer"].(string); strings.TrimSpace(producer) == "" {
		lua.Errorf(state, "expect_balance producer is required")
		return 0
	}
	appendStep(scenario, "expect_balance", data)
	return 0
}

func scenarioExpectPlatformBalance(state *lua.State) int {
	scenario := checkScenario(state)
	amount := lua.CheckNumber(state, 2)
	appendStep(scenario, "expect_platform_balance", map[string]any{"amount": normalizeNumber(amount)})
	return 0
}

func scenarioExpectSession(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "expect_session", tableToMap(state, 2))
	return 0
}

func scenarioExpectProducer(state *lua.State) int {
	scenario := checkScenario(state)
	principal := lua.CheckString(state, 2)
	expected := true
	if !state.IsNoneOrNil(3) {
		expected = state.ToBoolean(3)
	}
	appendStep(scenario, "expect_producer", map[string]any{"principal": principal, "is_producer": expected})
	return 0
}

func scenarioVerifyJournal(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "verify_journal", optionalTable(state, 2))
	return 0
}

// actorStep appends a step of kind performed by the actor and returns the
// actor so calls can chain.
func actorStep(kind string) lua.Function {
	return func(state *lua.State) int {
		a := checkActor(state)
		data := optionalTable(state, 2)
		data["as"] = a.principal
		appendStep(a.scenario, kind, data)
		state.PushValue(1)
		return 1
	}
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func checkActor(state *lua.State) *actor {
	ud := lua.CheckUserData(state, 1, actorTypeName)
	if a, ok := ud.(*actor); ok && a != nil {
		return a
	}
	lua.ArgumentError(state, 1, "actor expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if scenario == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 && math.Abs(value) < 1<<53 {
		return int64(value)
	}
	return value
}
