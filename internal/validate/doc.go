// Package validate provides attrs.Validator implementations.
//
// Rules checks attributes against go-playground/validator tags, one tag
// string per key:
//
//	v := validate.NewRules(map[string]any{
//	    "zoom":  "required,gte=0,lte=20",
//	    "theme": "oneof=light dark",
//	})
//
// Script runs a Lua function named validate that receives the attributes
// as a table and returns nil to accept them or a message to reject them:
//
//	function validate(attrs)
//	  if attrs.zoom > 20 then return "zoom out of range" end
//	end
package validate
