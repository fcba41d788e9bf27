package config

// OptionType identifies how an option's string form is parsed and
// re-serialized. Vector types hold one entry per filament/extruder slot.
type OptionType int

const (
	TypeFloat OptionType = iota
	TypeInt
	TypeBool
	TypePercent
	TypeString
	TypePoints
	TypeFloats
	TypeInts
	TypeBools
	TypeStrings
)

// Vector reports whether the type holds one value per extruder slot.
func (t OptionType) Vector() bool {
	switch t {
	case TypeFloats, TypeInts, TypeBools, TypeStrings:
		return true
	}
	return false
}

// knownOptions is the registry of configuration keys the session accepts.
// Keys outside this table fail deserialization with an unknown-key error.
var knownOptions = map[string]OptionType{
	"bed_temperature":                  TypeInts,
	"bottom_shell_layers":              TypeInt,
	"brim_type":                        TypeString,
	"brim_width":                       TypeFloat,
	"curr_bed_type":                    TypeString,
	"default_acceleration":             TypeFloat,
	"enable_prime_tower":               TypeBool,
	"enable_support":                   TypeBool,
	"fan_max_speed":                    TypeInts,
	"fan_min_speed":                    TypeInts,
	"filament_cost":                    TypeFloats,
	"filament_density":                 TypeFloats,
	"filament_diameter":                TypeFloats,
	"filament_settings_id":             TypeStrings,
	"filament_type":                    TypeStrings,
	"gcode_flavor":                     TypeString,
	"infill_direction":                 TypeFloat,
	"initial_layer_print_height":       TypeFloat,
	"inner_wall_line_width":            TypeFloat,
	"layer_height":                     TypeFloat,
	"machine_max_speed_x":              TypeFloats,
	"machine_max_speed_y":              TypeFloats,
	"nozzle_diameter":                  TypeFloats,
	"nozzle_temperature":               TypeInts,
	"nozzle_temperature_initial_layer": TypeInts,
	"outer_wall_line_width":            TypeFloat,
	"print_settings_id":                TypeString,
	"printable_area":                   TypePoints,
	"printable_height":                 TypeFloat,
	"printer_model":                    TypeString,
	"printer_settings_id":              TypeString,
	"printer_variant":                  TypeString,
	"prime_tower_width":                TypeFloat,
	"seam_position":                    TypeString,
	"skirt_loops":                      TypeInt,
	"slow_down_layer_time":             TypeInts,
	"sparse_infill_density":            TypePercent,
	"spiral_mode":                      TypeBool,
	"support_type":                     TypeString,
	"textured_plate_temp":              TypeInts,
	"timelapse_type":                   TypeInt,
	"top_shell_layers":                 TypeInt,
	"travel_speed":                     TypeFloat,
	"wall_loops":                       TypeInt,
}

// TypeOf returns the registered type for a key.
func TypeOf(key string) (OptionType, bool) {
	t, ok := knownOptions[key]
	return t, ok
}
