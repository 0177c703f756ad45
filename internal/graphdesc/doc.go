// Package graphdesc loads frame descriptions written in HCL and registers
// them on a framegraph.Graph.
//
// A description has an optional viewport, import blocks for textures owned
// outside the graph, and pass blocks in execution order:
//
//	viewport {
//	  width  = 1280
//	  height = 720
//	}
//
//	import "backbuffer" {
//	  format = "bgra8unorm"
//	  state  = "present"
//	}
//
//	pass "Main" {
//	  texture "color" {
//	    format = "bgra8unorm"
//	    width  = viewport.width
//	  }
//	  color_targets = ["color"]
//	  clear_color   = [0, 0, 0, 1]
//	  shader        = "fullscreen"
//	  draws         = 1
//	}
//
//	pass "Present" {
//	  type = "copy"
//	  copy {
//	    src = "color"
//	    dst = "backbuffer"
//	  }
//	  output = "backbuffer"
//	}
//
// Names share one namespace per description and must be declared before
// they are referenced. Texture sizes default to the viewport. Usages left
// out are derived from how passes access the resource. Shaders, either a
// builtin name or inline wgsl, are compiled when the description loads.
package graphdesc
